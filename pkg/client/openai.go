package client

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/easyops/tooluse-go/pkg/adapter"
	"github.com/easyops/tooluse-go/pkg/core/config"
	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
)

// openaiBackend OpenAI Chat Completions 后端
type openaiBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

var _ Backend = (*openaiBackend)(nil)

func newOpenAIBackend(cfg config.ModelConfig) (*openaiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.WrapError(errors.ErrBackendConfig, "openai backend needs an api key")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Host != "" {
		clientConfig.BaseURL = cfg.Host
	}

	return &openaiBackend{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}, nil
}

// Send 发送 Chat Completions 请求
//
// 响应重新编码为 wire 格式的 JSON 交给适配器解读。
func (b *openaiBackend) Send(ctx context.Context, msgs []message.Message, tools []map[string]interface{}) (*adapter.Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    toOpenAIMessages(msgs),
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
		Tools:       toOpenAITools(tools),
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, errors.WrapError(errors.ErrProviderUnavailable, err.Error())
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidResponse, err.Error())
	}

	return &adapter.Response{
		Raw:   raw,
		Model: resp.Model,
		Usage: message.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Close 释放资源（无操作）
func (b *openaiBackend) Close() error {
	return nil
}

// toOpenAIMessages 转换对话历史
func toOpenAIMessages(msgs []message.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		wire := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Text(),
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			args, _ := json.Marshal(call.Arguments)
			wire.ToolCalls = append(wire.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(args),
				},
			})
		}
		out = append(out, wire)
	}
	return out
}

// toOpenAITools 从适配器的 wire 格式转为 SDK 类型
func toOpenAITools(tools []map[string]interface{}) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		fn, _ := t["function"].(map[string]interface{})
		if fn == nil {
			continue
		}
		name, _ := fn["name"].(string)
		description, _ := fn["description"].(string)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        name,
				Description: description,
				Parameters:  fn["parameters"],
			},
		})
	}
	return out
}
