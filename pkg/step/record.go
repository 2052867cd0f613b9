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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Record 开放式输入/输出记录：字段名到任意值。值语义：合并产生新 Record，不原地修改
type Record map[string]any

// Clone 浅拷贝；nil 返回空 Record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge 浅合并 inputs 与 outputs，同名键 outputs 覆盖 inputs。两边均不被修改
func Merge(inputs, outputs Record) Record {
	out := make(Record, len(inputs)+len(outputs))
	for k, v := range inputs {
		out[k] = v
	}
	for k, v := range outputs {
		out[k] = v
	}
	return out
}

// Fingerprint 对 Record 做规范化 JSON 后取 sha256 前 16 字符，用于审计日志
func Fingerprint(r Record) string {
	if len(r) == 0 {
		return ""
	}
	b, _ := json.Marshal(canonicalize(map[string]any(r)))
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])[:16]
}

func canonicalize(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(m))
	for _, k := range keys {
		v := m[k]
		if vm, ok := v.(map[string]any); ok {
			v = canonicalize(vm)
		}
		out[k] = v
	}
	return out
}
