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
	"fmt"
	"strings"
)

// Schema 校验能力对象：Parse 校验候选记录，通过则返回（可能规范化的）记录，
// 失败返回错误。契约对实现不做假设，外部可注入任意校验器
type Schema interface {
	Parse(candidate Record) (Record, error)
}

// FieldType 字段类型
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBool    FieldType = "boolean"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
	FieldAny     FieldType = "" // 只检查存在性
)

// Field 单字段约束
type Field struct {
	Type     FieldType
	Required bool
}

// FieldSchema 按字段名声明约束的内置 Schema 实现。未声明的字段原样放行
type FieldSchema map[string]Field

// Parse 实现 Schema。记录不被修改，通过时原样返回
func (s FieldSchema) Parse(candidate Record) (Record, error) {
	var bad []FieldError
	for name, f := range s {
		v, ok := candidate[name]
		if !ok {
			if f.Required {
				bad = append(bad, FieldError{Name: name, Reason: "required field missing"})
			}
			continue
		}
		if !matchesType(v, f.Type) {
			bad = append(bad, FieldError{Name: name, Reason: fmt.Sprintf("expected %s, got %T", f.Type, v)})
		}
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Fields: bad}
	}
	return candidate, nil
}

func matchesType(v any, t FieldType) bool {
	switch t {
	case FieldAny:
		return true
	case FieldString:
		_, ok := v.(string)
		return ok
	case FieldBool:
		_, ok := v.(bool)
		return ok
	case FieldNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case FieldObject:
		_, ok := v.(map[string]any)
		if !ok {
			_, ok = v.(Record)
		}
		return ok
	case FieldArray:
		_, ok := v.([]any)
		return ok
	}
	return false
}

// FieldError 单字段校验失败原因
type FieldError struct {
	Name   string
	Reason string
}

// ValidationError 结构化校验错误，指明所有违规字段
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Name+": "+f.Reason)
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}
