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
	"sync"

	"github.com/google/uuid"

	"step-platform/pkg/errors"
	"step-platform/pkg/log"
)

// CallHandle 单次调用的不透明句柄：Append 返回，Patch 必须携带。
// 以句柄而非"最后一条"定位记录，并发 Run 各自补写自己的记录
type CallHandle string

// CallRecord 一次调用的记录。两阶段：先只有 inputs，计算完成后补 outputs。
// Fields 为开放字段集（inputs、outputs 及调用方自带元数据）
type CallRecord struct {
	Handle CallHandle
	Fields Record
}

// Inputs 返回记录中的 inputs 字段（无则 nil）
func (c CallRecord) Inputs() Record {
	if r, ok := c.Fields["inputs"].(Record); ok {
		return r
	}
	return nil
}

// Outputs 返回记录中的 outputs 字段（无则 nil）
func (c CallRecord) Outputs() Record {
	if r, ok := c.Fields["outputs"].(Record); ok {
		return r
	}
	return nil
}

// History 单个 Step 实例独占的 Call History 账本。只增不删不重排；
// 补写通过句柄定位。互斥锁保证并发 Append/Patch 下账本一致
type History struct {
	mu     sync.Mutex
	calls  []CallRecord
	logger *log.Logger
}

// NewHistory 创建空账本；logger 为 nil 时用默认
func NewHistory(logger *log.Logger) *History {
	if logger == nil {
		logger = log.Default()
	}
	return &History{logger: logger}
}

// Append 追加一条部分记录，返回本次调用的句柄
func (h *History) Append(fields Record) CallHandle {
	handle := CallHandle(uuid.NewString())
	h.mu.Lock()
	h.calls = append(h.calls, CallRecord{Handle: handle, Fields: fields.Clone()})
	rec := h.calls[len(h.calls)-1]
	h.mu.Unlock()
	h.logger.Debug("call recorded", "mode", "append", "handle", string(handle), "fields", rec.Fields)
	return handle
}

// Patch 按句柄将 fields 浅合并进对应记录（同名字段覆盖）。
// 空账本或未知句柄是调用方协议违规，立即报错
func (h *History) Patch(handle CallHandle, fields Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) == 0 {
		return errors.Invariantf("patch on empty call history")
	}
	for i := len(h.calls) - 1; i >= 0; i-- {
		if h.calls[i].Handle != handle {
			continue
		}
		for k, v := range fields {
			h.calls[i].Fields[k] = v
		}
		h.logger.Debug("call recorded", "mode", "patch", "handle", string(handle), "fields", h.calls[i].Fields)
		return nil
	}
	return errors.Invariantf("patch with unknown call handle %q", string(handle))
}

// Update 将 fields 浅合并进最后一条记录（无句柄的手动记账路径）。
// 空账本立即报错，说明 record-then-patch 协议被绕过
func (h *History) Update(fields Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) == 0 {
		return errors.Invariantf("update on empty call history")
	}
	last := &h.calls[len(h.calls)-1]
	for k, v := range fields {
		last.Fields[k] = v
	}
	h.logger.Debug("call recorded", "mode", "update", "handle", string(last.Handle), "fields", last.Fields)
	return nil
}

// Records 返回账本快照（记录与字段均拷贝）
func (h *History) Records() []CallRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]CallRecord, len(h.calls))
	for i, c := range h.calls {
		out[i] = CallRecord{Handle: c.Handle, Fields: c.Fields.Clone()}
	}
	return out
}

// Last 返回最近一条记录的拷贝；空账本返回 false
func (h *History) Last() (CallRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) == 0 {
		return CallRecord{}, false
	}
	c := h.calls[len(h.calls)-1]
	return CallRecord{Handle: c.Handle, Fields: c.Fields.Clone()}, true
}

// Len 当前记录数
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}
