package adapter

import (
	"encoding/json"
	"strings"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// AnthropicAdapter Anthropic Messages API 适配器
type AnthropicAdapter struct{}

var _ Adapter = (*AnthropicAdapter)(nil)

// NewAnthropicAdapter 创建 Anthropic 适配器
func NewAnthropicAdapter() *AnthropicAdapter {
	return &AnthropicAdapter{}
}

// Name 适配器名称
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// anthropicResponse Messages API 响应结构
type anthropicResponse struct {
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
}

// anthropicContentBlock 响应内容块
type anthropicContentBlock struct {
	Type  string                 `json:"type"`
	Text  string                 `json:"text,omitempty"`
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`
}

// FormatToolSchemas 转为 Anthropic 工具格式
//
// 形状：{"name", "description", "input_schema": {...}}
func (a *AnthropicAdapter) FormatToolSchemas(schemas []schema.ToolSchema) []map[string]interface{} {
	tools := make([]map[string]interface{}, 0, len(schemas))
	for _, s := range schemas {
		tools = append(tools, map[string]interface{}{
			"name":         s.Name,
			"description":  s.Description,
			"input_schema": objectSchema(s),
		})
	}
	return tools
}

// AppendResponse 转为对话历史消息
//
// Content 保留原始内容块列表，回灌请求时 tool_use 块保持原样。
func (a *AnthropicAdapter) AppendResponse(resp *Response) (message.Message, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return message.Message{}, err
	}

	var blocks []interface{}
	if err := json.Unmarshal(mustContent(resp.Raw), &blocks); err != nil {
		return message.Message{}, errors.WrapError(errors.ErrInvalidResponse, err.Error())
	}

	msg := message.Message{
		Role:    message.RoleAssistant,
		Content: blocks,
	}
	calls, _ := a.extractCalls(parsed)
	msg.ToolCalls = calls
	return msg, nil
}

// ExtractToolCalls 提取 tool_use 内容块
func (a *AnthropicAdapter) ExtractToolCalls(resp *Response) ([]message.ToolCall, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return nil, err
	}
	return a.extractCalls(parsed)
}

// ExtractText 拼接 text 内容块
func (a *AnthropicAdapter) ExtractText(resp *Response) (string, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// FormatToolResponse 构造 tool_result 消息
//
// Anthropic 的工具结果以 user 角色发送，通过 tool_use_id 关联。
func (a *AnthropicAdapter) FormatToolResponse(call message.ToolCall, result string) message.Message {
	return message.Message{
		Role: message.RoleUser,
		Content: []interface{}{
			map[string]interface{}{
				"type":        "tool_result",
				"tool_use_id": call.ID,
				"content":     result,
			},
		},
	}
}

func (a *AnthropicAdapter) parse(resp *Response) (*anthropicResponse, error) {
	if resp == nil || len(resp.Raw) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidResponse, "empty anthropic response")
	}
	var parsed anthropicResponse
	if err := json.Unmarshal(resp.Raw, &parsed); err != nil {
		return nil, errors.WrapError(errors.ErrInvalidResponse, err.Error())
	}
	return &parsed, nil
}

func (a *AnthropicAdapter) extractCalls(parsed *anthropicResponse) ([]message.ToolCall, error) {
	var calls []message.ToolCall
	for _, block := range parsed.Content {
		if block.Type != "tool_use" {
			continue
		}
		args := block.Input
		if args == nil {
			args = map[string]interface{}{}
		}
		calls = append(calls, message.ToolCall{
			ID:        block.ID,
			Name:      block.Name,
			Arguments: args,
		})
	}
	return calls, nil
}

// mustContent 取响应体的 content 字段原文
func mustContent(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Content) == 0 {
		return json.RawMessage("[]")
	}
	return envelope.Content
}
