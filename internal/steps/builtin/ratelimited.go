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

package builtin

import (
	"context"

	"golang.org/x/time/rate"

	"step-platform/pkg/step"
)

// RateLimited 限流装饰器：QPS + 并发上限，包住任意 Definition。
// 多个 Step 可共享同一个装饰实例以共享配额
type RateLimited struct {
	inner   step.Definition
	limiter *rate.Limiter
	sem     chan struct{}
}

// NewRateLimited 创建装饰器；qps<=0 不限速，maxConcurrent<=0 不限并发
func NewRateLimited(inner step.Definition, qps float64, burst, maxConcurrent int) *RateLimited {
	r := &RateLimited{inner: inner}
	if qps > 0 {
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
	if maxConcurrent > 0 {
		r.sem = make(chan struct{}, maxConcurrent)
	}
	return r
}

// Compute 实现 step.Definition：先过限流器再委托
func (r *RateLimited) Compute(ctx context.Context, inputs step.Record, siblings step.Siblings) (step.Record, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if r.sem != nil {
		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.inner.Compute(ctx, inputs, siblings)
}

// Metadata 实现 step.Definition：透传内层元数据并打上限流标记
func (r *RateLimited) Metadata() step.Record {
	meta := r.inner.Metadata().Clone()
	meta["rate_limited"] = true
	return meta
}
