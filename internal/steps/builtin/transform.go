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

// Package builtin 提供内置 Step 变体（transform、llm.chat、http.request、限流装饰器）。
// 每个变体实现 step.Definition，由管线构建方选型注入，契约本身不感知
package builtin

import (
	"context"

	"step-platform/pkg/step"
)

// Transform 纯函数变体：闭包直接充当 Compute
type Transform struct {
	fn step.Func
}

// NewTransform 创建函数式变体
func NewTransform(fn step.Func) *Transform {
	return &Transform{fn: fn}
}

// Compute 实现 step.Definition
func (t *Transform) Compute(ctx context.Context, inputs step.Record, siblings step.Siblings) (step.Record, error) {
	return t.fn(ctx, inputs, siblings)
}

// Metadata 实现 step.Definition
func (t *Transform) Metadata() step.Record {
	return step.Record{"type": "transform"}
}
