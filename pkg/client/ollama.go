package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/easyops/tooluse-go/pkg/adapter"
	"github.com/easyops/tooluse-go/pkg/core/config"
	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
)

// ollamaBackend 本地 Ollama /api/chat 后端
type ollamaBackend struct {
	host       string
	model      string
	httpClient *http.Client
}

var _ Backend = (*ollamaBackend)(nil)

func newOllamaBackend(cfg config.ModelConfig) (*ollamaBackend, error) {
	if cfg.Host == "" {
		return nil, errors.WrapError(errors.ErrBackendConfig, "ollama backend needs a host")
	}

	return &ollamaBackend{
		host:       strings.TrimSuffix(cfg.Host, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ollamaChatRequest /api/chat 请求结构
type ollamaChatRequest struct {
	Model    string                   `json:"model"`
	Messages []map[string]interface{} `json:"messages"`
	Stream   bool                     `json:"stream"`
	Tools    []map[string]interface{} `json:"tools,omitempty"`
}

// Send 发送 /api/chat 请求（非流式）
func (b *ollamaBackend) Send(ctx context.Context, msgs []message.Message, tools []map[string]interface{}) (*adapter.Response, error) {
	wireMsgs := make([]map[string]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		wire := map[string]interface{}{
			"role":    string(msg.Role),
			"content": msg.Text(),
		}
		if len(msg.ToolCalls) > 0 {
			calls := make([]map[string]interface{}, 0, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				calls = append(calls, map[string]interface{}{
					"function": map[string]interface{}{
						"name":      call.Name,
						"arguments": call.Arguments,
					},
				})
			}
			wire["tool_calls"] = calls
		}
		wireMsgs = append(wireMsgs, wire)
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    b.model,
		Messages: wireMsgs,
		Stream:   false,
		Tools:    tools,
	})
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidConfig, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapError(errors.ErrProviderUnavailable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapError(errors.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapError(errors.ErrProviderUnavailable, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, string(raw))
	}

	var envelope struct {
		Model           string `json:"model"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.WrapError(errors.ErrInvalidResponse, err.Error())
	}

	return &adapter.Response{
		Raw:   raw,
		Model: envelope.Model,
		Usage: message.TokenUsage{
			PromptTokens:     envelope.PromptEvalCount,
			CompletionTokens: envelope.EvalCount,
			TotalTokens:      envelope.PromptEvalCount + envelope.EvalCount,
		},
	}, nil
}

// Close 释放资源（无操作）
func (b *ollamaBackend) Close() error {
	return nil
}
