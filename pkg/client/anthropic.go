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

const (
	anthropicDefaultHost = "https://api.anthropic.com"
	anthropicVersion     = "2023-06-01"
)

// anthropicBackend Anthropic Messages API 后端
type anthropicBackend struct {
	apiKey     string
	host       string
	model      string
	maxTokens  int
	httpClient *http.Client
}

var _ Backend = (*anthropicBackend)(nil)

func newAnthropicBackend(cfg config.ModelConfig) (*anthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.WrapError(errors.ErrBackendConfig, "anthropic backend needs an api key")
	}
	if cfg.MaxTokens <= 0 {
		return nil, errors.WrapError(errors.ErrBackendConfig, "anthropic backend needs max_tokens")
	}

	host := cfg.Host
	if host == "" {
		host = anthropicDefaultHost
	}

	return &anthropicBackend{
		apiKey:     cfg.APIKey,
		host:       strings.TrimSuffix(host, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// anthropicRequest Messages API 请求结构
type anthropicRequest struct {
	Model     string                   `json:"model"`
	MaxTokens int                      `json:"max_tokens"`
	System    string                   `json:"system,omitempty"`
	Messages  []map[string]interface{} `json:"messages"`
	Tools     []map[string]interface{} `json:"tools,omitempty"`
}

// anthropicUsage 响应中的用量统计
type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Send 发送 /v1/messages 请求
//
// system 消息提升为顶层 system 参数，Anthropic 不接受
// system 角色出现在消息列表中。
func (b *anthropicBackend) Send(ctx context.Context, msgs []message.Message, tools []map[string]interface{}) (*adapter.Response, error) {
	var system string
	wireMsgs := make([]map[string]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == message.RoleSystem {
			system = msg.Text()
			continue
		}
		wireMsgs = append(wireMsgs, map[string]interface{}{
			"role":    string(msg.Role),
			"content": msg.Content,
		})
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		System:    system,
		Messages:  wireMsgs,
		Tools:     tools,
	})
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidConfig, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapError(errors.ErrProviderUnavailable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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
		Model string         `json:"model"`
		Usage anthropicUsage `json:"usage"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.WrapError(errors.ErrInvalidResponse, err.Error())
	}

	return &adapter.Response{
		Raw:   raw,
		Model: envelope.Model,
		Usage: message.TokenUsage{
			PromptTokens:     envelope.Usage.InputTokens,
			CompletionTokens: envelope.Usage.OutputTokens,
			TotalTokens:      envelope.Usage.InputTokens + envelope.Usage.OutputTokens,
		},
	}, nil
}

// Close 释放资源（无操作）
func (b *anthropicBackend) Close() error {
	return nil
}
