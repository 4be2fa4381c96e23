package adapter

import (
	"encoding/json"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// OllamaAdapter Ollama /api/chat 适配器
//
// 工具格式与 OpenAI 相同，响应中调用参数是 JSON 对象而非字符串。
type OllamaAdapter struct {
	openai OpenAIAdapter
}

var _ Adapter = (*OllamaAdapter)(nil)

// NewOllamaAdapter 创建 Ollama 适配器
func NewOllamaAdapter() *OllamaAdapter {
	return &OllamaAdapter{}
}

// Name 适配器名称
func (a *OllamaAdapter) Name() string {
	return "ollama"
}

// ollamaResponse /api/chat 响应结构
type ollamaResponse struct {
	Message struct {
		Role      string `json:"role"`
		Content   string `json:"content"`
		ToolCalls []struct {
			Function struct {
				Name      string                 `json:"name"`
				Arguments map[string]interface{} `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
	DoneReason string `json:"done_reason"`
}

// FormatToolSchemas 转为 Ollama 工具格式（与 OpenAI 一致）
func (a *OllamaAdapter) FormatToolSchemas(schemas []schema.ToolSchema) []map[string]interface{} {
	return a.openai.FormatToolSchemas(schemas)
}

// AppendResponse 转为对话历史消息
func (a *OllamaAdapter) AppendResponse(resp *Response) (message.Message, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return message.Message{}, err
	}

	calls, _ := a.extractCalls(parsed)
	return message.Message{
		Role:      message.RoleAssistant,
		Content:   parsed.Message.Content,
		ToolCalls: calls,
	}, nil
}

// ExtractToolCalls 提取工具调用
//
// Ollama 响应不带调用 ID，结果消息按名称关联。
func (a *OllamaAdapter) ExtractToolCalls(resp *Response) ([]message.ToolCall, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return nil, err
	}
	return a.extractCalls(parsed)
}

// ExtractText 提取文本内容
func (a *OllamaAdapter) ExtractText(resp *Response) (string, error) {
	parsed, err := a.parse(resp)
	if err != nil {
		return "", err
	}
	return parsed.Message.Content, nil
}

// FormatToolResponse 构造 tool 角色消息
func (a *OllamaAdapter) FormatToolResponse(call message.ToolCall, result string) message.Message {
	return message.Message{
		Role:    message.RoleTool,
		Content: result,
		Name:    call.Name,
	}
}

func (a *OllamaAdapter) parse(resp *Response) (*ollamaResponse, error) {
	if resp == nil || len(resp.Raw) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidResponse, "empty ollama response")
	}
	var parsed ollamaResponse
	if err := json.Unmarshal(resp.Raw, &parsed); err != nil {
		return nil, errors.WrapError(errors.ErrInvalidResponse, err.Error())
	}
	return &parsed, nil
}

func (a *OllamaAdapter) extractCalls(parsed *ollamaResponse) ([]message.ToolCall, error) {
	var calls []message.ToolCall
	for _, tc := range parsed.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == nil {
			args = map[string]interface{}{}
		}
		calls = append(calls, message.ToolCall{
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return calls, nil
}
