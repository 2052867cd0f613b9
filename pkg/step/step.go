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

// Package step 提供 Step 执行契约与 Call History 账本。
//
// 每次 Run 按固定生命周期执行：trace → 记账（inputs）→ preprocess →
// 委托 Compute → 输出键重映射 → 补账（outputs）→ postprocess 合并。
// 计算本身由 Definition 实现方决定，契约不感知；Step 之间的编排
// （顺序、分支、重试）属于外部 orchestrator，不在本包
package step

import (
	"context"
	"time"

	"step-platform/pkg/log"
	"step-platform/pkg/metrics"
)

// Siblings 管线内其他 Step 的只读引用，原样透传给 Compute，契约不解释
type Siblings map[string]*Step

// Args Run 的入参：原始输入记录 + 可选的同管线 Step 引用
type Args struct {
	Inputs   Record
	Siblings Siblings
}

// Definition 具体 Step 变体必须实现的两个扩展点。
// Compute 的错误原样上抛；Metadata 供 Serialize 拼接审计快照
type Definition interface {
	Compute(ctx context.Context, inputs Record, siblings Siblings) (Record, error)
	Metadata() Record
}

// Func 函数式 Compute 签名，便于闭包直接充当变体（见 internal/steps/builtin）
type Func func(ctx context.Context, inputs Record, siblings Siblings) (Record, error)

// OnFailure schema 校验失败策略
type OnFailure string

const (
	// OnFailureIgnore 记录日志后放行原记录（默认）
	OnFailureIgnore OnFailure = "ignore"
	// OnFailureRaise 校验失败直接作为 Run 的错误上抛
	OnFailureRaise OnFailure = "raise"
)

// Step 具名的可复用计算单元：声明式输入/输出契约 + 独占的调用历史。
// name 不要求全局唯一；outputMap 构造期固定，之后不可变
type Step struct {
	name      string
	outputMap map[string]string
	def       Definition

	inSchema  Schema
	outSchema Schema
	onFailure OnFailure

	history *History
	logger  *log.Logger
}

// Option 构造期配置
type Option func(*Step)

// WithOutputMap 声明输出键重命名（原键 → 新键，部分映射）
func WithOutputMap(m map[string]string) Option {
	return func(s *Step) {
		if len(m) == 0 {
			return
		}
		s.outputMap = make(map[string]string, len(m))
		for k, v := range m {
			s.outputMap[k] = v
		}
	}
}

// WithLogger 注入 Logger，缺省用 log.Default()
func WithLogger(l *log.Logger) Option {
	return func(s *Step) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnFailure 设置校验失败策略，缺省 OnFailureIgnore
func WithOnFailure(p OnFailure) Option {
	return func(s *Step) {
		if p == OnFailureRaise || p == OnFailureIgnore {
			s.onFailure = p
		}
	}
}

// New 创建 Step。def 为该 Step 的计算实现；opts 见 Option
func New(name string, def Definition, opts ...Option) *Step {
	s := &Step{
		name:      name,
		def:       def,
		onFailure: OnFailureIgnore,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistory(s.logger)
	return s
}

// Name 返回 Step 名
func (s *Step) Name() string { return s.name }

// WithInputSchema 挂接输入 schema，返回自身便于链式配置；重复设置静默替换
func (s *Step) WithInputSchema(sc Schema) *Step {
	s.inSchema = sc
	return s
}

// WithOutputSchema 挂接输出 schema，语义同 WithInputSchema
func (s *Step) WithOutputSchema(sc Schema) *Step {
	s.outSchema = sc
	return s
}

// History 返回该实例独占的调用账本
func (s *Step) History() *History { return s.history }

// Run 执行一次调用，返回有效输入与映射后输出的浅合并（同名键输出覆盖输入）。
// Compute 失败时账本里留下一条只有 inputs 的记录，标记这次未完成的调用
func (s *Step) Run(ctx context.Context, args Args) (Record, error) {
	s.logger.Debug("step run", "step", s.name,
		"inputs", args.Inputs, "inputs_hash", Fingerprint(args.Inputs),
		"siblings", len(args.Siblings))
	start := time.Now()

	handle := s.history.Append(Record{"inputs": args.Inputs.Clone()})
	metrics.CallHistoryLen.WithLabelValues(s.name).Set(float64(s.history.Len()))

	effective, err := s.preprocess(args.Inputs)
	if err != nil {
		s.observe(start, "failed")
		return nil, err
	}

	raw, err := s.def.Compute(ctx, effective, args.Siblings)
	if err != nil {
		s.observe(start, "failed")
		// 委托计算的失败对契约不透明，原样上抛
		return nil, err
	}

	mapped := s.mapOutputs(raw)
	if err := s.history.Patch(handle, Record{"outputs": mapped.Clone()}); err != nil {
		s.observe(start, "failed")
		return nil, err
	}

	result, err := s.postprocess(effective, mapped)
	if err != nil {
		s.observe(start, "failed")
		return nil, err
	}
	s.observe(start, "completed")
	return result, nil
}

func (s *Step) observe(start time.Time, outcome string) {
	metrics.StepRunDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	metrics.StepRunTotal.WithLabelValues(s.name, outcome).Inc()
}

// preprocess 按策略校验原始输入，返回有效输入记录
func (s *Step) preprocess(inputs Record) (Record, error) {
	s.logger.Debug("step preprocess", "step", s.name, "inputs", inputs)
	validated, err := s.ValidateInputs(inputs)
	if err != nil {
		metrics.ValidationFailTotal.WithLabelValues(s.name, "input").Inc()
		if s.onFailure == OnFailureRaise {
			return nil, err
		}
		s.logger.Warn("input validation failed, passing through", "step", s.name, "err", err)
		return inputs, nil
	}
	return validated, nil
}

// postprocess 按策略校验输出，返回 {…inputs, …outputs}（同名键输出覆盖）
func (s *Step) postprocess(inputs, outputs Record) (Record, error) {
	s.logger.Debug("step postprocess", "step", s.name, "inputs", inputs, "outputs", outputs)
	if _, err := s.ValidateOutputs(outputs); err != nil {
		metrics.ValidationFailTotal.WithLabelValues(s.name, "output").Inc()
		if s.onFailure == OnFailureRaise {
			return nil, err
		}
		s.logger.Warn("output validation failed, passing through", "step", s.name, "err", err)
	}
	return Merge(inputs, outputs), nil
}

// mapOutputs 按 outputMap 重命名输出键。只看实际产出的键：映射了未产出的键
// 是静默空操作。两个原键映射到同一目标键时，按遍历顺序后写覆盖先写
func (s *Step) mapOutputs(outputs Record) Record {
	if len(s.outputMap) == 0 {
		return outputs
	}
	mapped := make(Record, len(outputs))
	for k, v := range outputs {
		if target, ok := s.outputMap[k]; ok {
			mapped[target] = v
			continue
		}
		mapped[k] = v
	}
	return mapped
}

// ValidateInputs 用已声明的输入 schema 校验记录；未声明时原样返回
func (s *Step) ValidateInputs(r Record) (Record, error) {
	if s.inSchema == nil {
		return r, nil
	}
	return s.inSchema.Parse(r)
}

// ValidateOutputs 用已声明的输出 schema 校验记录；未声明时原样返回
func (s *Step) ValidateOutputs(r Record) (Record, error) {
	if s.outSchema == nil {
		return r, nil
	}
	return s.outSchema.Parse(r)
}

// Serialize 返回审计快照：最近一条调用记录 + 变体自报的元数据。
// 无调用时返回空 Record 而非报错，orchestrator 可无条件聚合
func (s *Step) Serialize() Record {
	last, ok := s.history.Last()
	if !ok {
		return Record{}
	}
	out := Record{"call": last.Fields}
	if s.def != nil {
		for k, v := range s.def.Metadata() {
			out[k] = v
		}
	}
	return out
}
