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
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"step-platform/pkg/config"
	"step-platform/pkg/errors"
	"step-platform/pkg/step"
)

// Chat OpenAI 兼容 chat-completions 变体。prompt 取自输入记录的 promptKey 字段，
// 输出记录为 {completion, model}
type Chat struct {
	model     string
	apiKey    string
	baseURL   string
	promptKey string
	client    *resty.Client
}

// NewChat 根据模型配置创建 chat 变体；baseURL 为空时用默认或 OPENAI_BASE_URL
func NewChat(cfg config.ModelConfig, promptKey string) (*Chat, error) {
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}
	if promptKey == "" {
		promptKey = "prompt"
	}
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, errors.Wrapf(err, "model.timeout %q", cfg.Timeout)
		}
		timeout = d
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &Chat{
		model:     model,
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		promptKey: promptKey,
		client:    client,
	}, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Compute 实现 step.Definition
func (c *Chat) Compute(ctx context.Context, inputs step.Record, _ step.Siblings) (step.Record, error) {
	prompt, _ := inputs[c.promptKey].(string)
	if prompt == "" {
		return nil, errors.Wrapf(errors.ErrInvalidArg, "input field %q must be a non-empty string", c.promptKey)
	}

	request := map[string]interface{}{
		"model":    c.model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
	}

	var parsed chatResponse
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(request).
		SetResult(&parsed).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("调用 chat API failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("chat API 返回错误: %s", response.String())
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat API 无响应内容")
	}

	return step.Record{
		"completion": parsed.Choices[0].Message.Content,
		"model":      c.model,
	}, nil
}

// Metadata 实现 step.Definition
func (c *Chat) Metadata() step.Record {
	return step.Record{"type": "llm.chat", "provider": "openai", "model": c.model}
}
