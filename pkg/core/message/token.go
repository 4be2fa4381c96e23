package message

import "fmt"

// TokenUsage 单次请求或整个回合的 Token 统计
//
// 后端未提供统计时保持零值，由客户端按需估算补齐。
type TokenUsage struct {
	// PromptTokens 输入 Token 数
	PromptTokens int `json:"prompt_tokens"`
	// CompletionTokens 输出 Token 数
	CompletionTokens int `json:"completion_tokens"`
	// TotalTokens 总 Token 数
	TotalTokens int `json:"total_tokens"`
}

// Add 累加另一份统计，用于跨工具轮汇总
func (t *TokenUsage) Add(other TokenUsage) {
	t.PromptTokens += other.PromptTokens
	t.CompletionTokens += other.CompletionTokens
	t.TotalTokens += other.TotalTokens
}

// IsEmpty 检查后端是否提供了统计
func (t *TokenUsage) IsEmpty() bool {
	return t.TotalTokens == 0
}

// String 实现 fmt.Stringer，便于日志输出
func (t TokenUsage) String() string {
	return fmt.Sprintf("prompt=%d completion=%d total=%d",
		t.PromptTokens, t.CompletionTokens, t.TotalTokens)
}
