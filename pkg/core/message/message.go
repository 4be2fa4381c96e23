// Package message 定义对话消息相关的类型
package message

// Role 表示消息的角色类型
type Role string

const (
	// RoleSystem 系统消息
	RoleSystem Role = "system"
	// RoleUser 用户消息
	RoleUser Role = "user"
	// RoleAssistant AI 助手消息
	RoleAssistant Role = "assistant"
	// RoleTool 工具调用结果消息
	RoleTool Role = "tool"
)

// IsValid 检查 Role 是否为有效值
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// ToolCall 表示模型请求的一次工具调用
type ToolCall struct {
	// ID 调用标识（仅部分后端提供）
	ID string `json:"id,omitempty"`
	// Name 工具名称
	Name string `json:"name"`
	// Arguments 调用参数
	Arguments map[string]interface{} `json:"arguments"`
}

// Message 表示对话中的一条消息
//
// Content 为 any 类型：纯文本对话为 string，
// Anthropic 风格的助手回合和工具结果为内容块列表。
// 消息历史是追加式的有序序列，由适配器负责维护各后端期望的形状。
type Message struct {
	// Role 消息角色
	Role Role `json:"role"`
	// Content 消息内容
	Content interface{} `json:"content"`
	// Name 名称（当 Role=tool 时为工具名称）
	Name string `json:"name,omitempty"`
	// ToolCalls 工具调用请求（当 Role=assistant 时）
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID 对应的工具调用 ID（当 Role=tool 时）
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// NewSystemMessage 创建系统消息
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage 创建用户消息
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage 创建助手消息
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Text 返回消息的文本内容；非文本内容返回空字符串
func (m *Message) Text() string {
	s, _ := m.Content.(string)
	return s
}

// HasToolCalls 检查消息是否包含工具调用
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Validate 验证消息是否有效
func (m *Message) Validate() error {
	if !m.Role.IsValid() {
		return ErrInvalidRole
	}
	if m.Content == nil && len(m.ToolCalls) == 0 {
		return ErrEmptyContent
	}
	return nil
}
