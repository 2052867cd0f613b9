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
	"time"

	"github.com/go-resty/resty/v2"

	"step-platform/pkg/errors"
	"step-platform/pkg/step"
)

// Request HTTP 请求变体。输入记录须含 method、url，可选 body、headers；
// 输出记录为 {status, body}
type Request struct {
	client *resty.Client
}

// NewRequest 创建 http.request 变体
func NewRequest() *Request {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	return &Request{client: client}
}

// Compute 实现 step.Definition
func (r *Request) Compute(ctx context.Context, inputs step.Record, _ step.Siblings) (step.Record, error) {
	method, _ := inputs["method"].(string)
	urlStr, _ := inputs["url"].(string)
	if method == "" || urlStr == "" {
		return nil, errors.Wrap(errors.ErrInvalidArg, "method and url are required")
	}

	req := r.client.R().SetContext(ctx)
	if body, ok := inputs["body"].(string); ok && body != "" {
		req.SetBody(body)
	}
	if headers, ok := inputs["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.SetHeader(k, s)
			}
		}
	}

	resp, err := req.Execute(method, urlStr)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, urlStr)
	}
	return step.Record{
		"status": resp.StatusCode(),
		"body":   resp.String(),
	}, nil
}

// Metadata 实现 step.Definition
func (r *Request) Metadata() step.Record {
	return step.Record{"type": "http.request"}
}
