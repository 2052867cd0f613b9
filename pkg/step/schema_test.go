// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package step

import (
	"errors"
	"strings"
	"testing"
)

func TestFieldSchema_Pass(t *testing.T) {
	s := FieldSchema{
		"name":  {Type: FieldString, Required: true},
		"count": {Type: FieldNumber},
		"tags":  {Type: FieldArray},
	}
	in := Record{"name": "Ada", "count": 3, "extra": true}
	got, err := s.Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got["extra"] != true {
		t.Error("未声明字段应原样放行")
	}
}

func TestFieldSchema_RequiredMissing(t *testing.T) {
	s := FieldSchema{"name": {Type: FieldString, Required: true}}
	_, err := s.Parse(Record{})
	if err == nil {
		t.Fatal("缺少必填字段应报错")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("应为 *ValidationError: %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Name != "name" {
		t.Errorf("违规字段: %+v", verr.Fields)
	}
	if !strings.Contains(err.Error(), "name") {
		t.Errorf("错误信息应指明字段: %v", err)
	}
}

func TestFieldSchema_TypeMismatch(t *testing.T) {
	s := FieldSchema{
		"count": {Type: FieldNumber, Required: true},
		"ok":    {Type: FieldBool, Required: true},
	}
	_, err := s.Parse(Record{"count": "three", "ok": "yes"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("应为 *ValidationError: %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("应报出全部违规字段: %+v", verr.Fields)
	}
}

func TestFieldSchema_NumberAcceptsIntAndFloat(t *testing.T) {
	s := FieldSchema{"n": {Type: FieldNumber, Required: true}}
	for _, v := range []any{1, int64(2), 3.5} {
		if _, err := s.Parse(Record{"n": v}); err != nil {
			t.Errorf("number 应接受 %T: %v", v, err)
		}
	}
}

func TestFieldSchema_ObjectAcceptsRecord(t *testing.T) {
	s := FieldSchema{"meta": {Type: FieldObject, Required: true}}
	if _, err := s.Parse(Record{"meta": Record{"k": "v"}}); err != nil {
		t.Errorf("object 应接受 Record: %v", err)
	}
	if _, err := s.Parse(Record{"meta": map[string]any{"k": "v"}}); err != nil {
		t.Errorf("object 应接受 map[string]any: %v", err)
	}
}

func TestFieldSchema_AnyTypeOnlyChecksPresence(t *testing.T) {
	s := FieldSchema{"x": {Required: true}}
	if _, err := s.Parse(Record{"x": struct{}{}}); err != nil {
		t.Errorf("空类型只查存在性: %v", err)
	}
	if _, err := s.Parse(Record{}); err == nil {
		t.Error("缺字段仍应报错")
	}
}
