package config

import "time"

// ClientType LLM 客户端类型
type ClientType string

const (
	// ClientAnthropic Anthropic Messages API
	ClientAnthropic ClientType = "anthropic"
	// ClientOpenAI OpenAI Chat Completions API
	ClientOpenAI ClientType = "openai"
	// ClientOllama 本地 Ollama 服务
	ClientOllama ClientType = "ollama"
)

// IsValid 检查客户端类型是否有效
func (t ClientType) IsValid() bool {
	switch t {
	case ClientAnthropic, ClientOpenAI, ClientOllama:
		return true
	default:
		return false
	}
}

// ModelConfig 模型与工具循环配置
type ModelConfig struct {
	// ClientType 客户端类型
	ClientType ClientType `koanf:"client_type"`
	// Model 模型名称
	Model string `koanf:"model"`
	// APIKey API 密钥（Ollama 不需要）
	APIKey string `koanf:"api_key"`
	// Host API 端点（Ollama 必填，其余后端可选）
	Host string `koanf:"host"`
	// MaxTokens 单次响应的 token 上限（Anthropic 必填）
	MaxTokens int `koanf:"max_tokens"`
	// Temperature 采样温度 [0, 2]
	Temperature float64 `koanf:"temperature"`
	// Timeout 请求超时时间
	// 默认: 60s, 最大: 5m
	Timeout time.Duration `koanf:"timeout"`
	// MaxToolRounds 单个回合允许的工具轮数
	// 默认: 1
	MaxToolRounds int `koanf:"max_tool_rounds"`
	// AllowedTools 工具白名单，空表示不限制
	AllowedTools []string `koanf:"allowed_tools"`
	// Servers 远程工具服务器，键为服务器名，值为连接目标
	Servers map[string]string `koanf:"servers"`
}

// Validate 验证模型配置
func (c *ModelConfig) Validate() error {
	if !c.ClientType.IsValid() {
		return ErrInvalidClientType
	}
	if c.Model == "" {
		return ErrModelRequired
	}
	if c.ClientType != ClientOllama && c.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return ErrInvalidTemperature
	}
	if c.MaxTokens < 0 {
		return ErrInvalidMaxTokens
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxToolRounds < 0 {
		return ErrInvalidMaxToolRounds
	}
	return nil
}

// WithDefaults 返回带默认值的配置
//
// 只补全有合理默认值的字段。后端必需的字段（Anthropic 的
// MaxTokens、Ollama 的 Host）缺失属于构造期配置错误，
// 由对应后端在创建时报 ErrBackendConfig，不在这里兜底。
func (c ModelConfig) WithDefaults() ModelConfig {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Timeout > 5*time.Minute {
		c.Timeout = 5 * time.Minute
	}
	if c.MaxToolRounds == 0 {
		c.MaxToolRounds = 1
	}
	return c
}
