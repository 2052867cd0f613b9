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

import "testing"

func TestMerge_OutputWinsAndSourcesUntouched(t *testing.T) {
	in := Record{"a": 1, "b": "keep"}
	out := Record{"a": 2, "c": true}
	got := Merge(in, out)
	if got["a"] != 2 || got["b"] != "keep" || got["c"] != true {
		t.Errorf("Merge: got %v", got)
	}
	if in["a"] != 1 || len(in) != 2 {
		t.Error("Merge 不得修改 inputs")
	}
	if len(out) != 2 {
		t.Error("Merge 不得修改 outputs")
	}
}

func TestClone_Detached(t *testing.T) {
	r := Record{"k": "v"}
	c := r.Clone()
	c["k"] = "changed"
	if r["k"] != "v" {
		t.Error("Clone 应独立于原记录")
	}
	var nilRec Record
	if nilRec.Clone() == nil {
		t.Error("nil Record Clone 应返回空 Record")
	}
}

func TestFingerprint_KeyOrderIndependent(t *testing.T) {
	a := Record{"x": 1, "y": map[string]any{"b": 2, "a": 1}}
	b := Record{"y": map[string]any{"a": 1, "b": 2}, "x": 1}
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("规范化后指纹应与键序无关")
	}
	if Fingerprint(Record{}) != "" {
		t.Error("空记录指纹为空串")
	}
	if Fingerprint(a) == Fingerprint(Record{"x": 2}) {
		t.Error("不同记录应有不同指纹")
	}
}
