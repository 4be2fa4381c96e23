package adapter

import (
	"encoding/json"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// OpenAIAdapter OpenAI Chat Completions API 适配器
type OpenAIAdapter struct{}

var _ Adapter = (*OpenAIAdapter)(nil)

// NewOpenAIAdapter 创建 OpenAI 适配器
func NewOpenAIAdapter() *OpenAIAdapter {
	return &OpenAIAdapter{}
}

// Name 适配器名称
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// openaiResponse Chat Completions 响应结构
type openaiResponse struct {
	Choices []struct {
		Message struct {
			Role      string           `json:"role"`
			Content   string           `json:"content"`
			ToolCalls []openaiToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// openaiToolCall 响应中的工具调用
type openaiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
		// Arguments 是 JSON 编码的字符串，不是对象
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// FormatToolSchemas 转为 OpenAI 工具格式
//
// 形状：{"type": "function", "function": {"name", "description", "parameters"}}
func (a *OpenAIAdapter) FormatToolSchemas(schemas []schema.ToolSchema) []map[string]interface{} {
	tools := make([]map[string]interface{}, 0, len(schemas))
	for _, s := range schemas {
		tools = append(tools, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        s.Name,
				"description": s.Description,
				"parameters":  objectSchema(s),
			},
		})
	}
	return tools
}

// AppendResponse 转为对话历史消息
func (a *OpenAIAdapter) AppendResponse(resp *Response) (message.Message, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return message.Message{}, err
	}

	choice := parsed.Choices[0]
	calls, err := a.extractCalls(parsed)
	if err != nil {
		return message.Message{}, err
	}

	return message.Message{
		Role:      message.RoleAssistant,
		Content:   choice.Message.Content,
		ToolCalls: calls,
	}, nil
}

// ExtractToolCalls 提取工具调用
//
// OpenAI 的调用参数是 JSON 字符串，解码失败归类为无效响应。
func (a *OpenAIAdapter) ExtractToolCalls(resp *Response) ([]message.ToolCall, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return nil, err
	}
	return a.extractCalls(parsed)
}

// ExtractText 提取首个 choice 的文本内容
func (a *OpenAIAdapter) ExtractText(resp *Response) (string, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return "", err
	}
	return parsed.Choices[0].Message.Content, nil
}

// FormatToolResponse 构造 tool 角色消息
func (a *OpenAIAdapter) FormatToolResponse(call message.ToolCall, result string) message.Message {
	return message.Message{
		Role:       message.RoleTool,
		Content:    result,
		Name:       call.Name,
		ToolCallID: call.ID,
	}
}

func (a *OpenAIAdapter) parse(resp *Response) (*openaiResponse, error) {
	if resp == nil || len(resp.Raw) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidResponse, "empty openai response")
	}
	var parsed openaiResponse
	if err := json.Unmarshal(resp.Raw, &parsed); err != nil {
		return nil, errors.WrapError(errors.ErrInvalidResponse, err.Error())
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidResponse, "openai response has no choices")
	}
	return &parsed, nil
}

func (a *OpenAIAdapter) extractCalls(parsed *openaiResponse) ([]message.ToolCall, error) {
	var calls []message.ToolCall
	for _, tc := range parsed.Choices[0].Message.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, errors.WrapError(errors.ErrInvalidResponse,
					"tool call arguments not valid JSON: "+err.Error())
			}
		}
		calls = append(calls, message.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return calls, nil
}
