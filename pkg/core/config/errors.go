package config

import "errors"

// 配置验证相关错误
var (
	// ErrInvalidClientType 客户端类型无效
	ErrInvalidClientType = errors.New("client type must be one of: anthropic, openai, ollama")
	// ErrModelRequired 模型名称必填
	ErrModelRequired = errors.New("model name is required")
	// ErrAPIKeyRequired API 密钥必填
	ErrAPIKeyRequired = errors.New("api key is required")
	// ErrInvalidTimeout 超时时间无效
	ErrInvalidTimeout = errors.New("invalid timeout value")
	// ErrInvalidTemperature 温度值无效
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	// ErrInvalidMaxTokens Token 数无效
	ErrInvalidMaxTokens = errors.New("max tokens must be positive")
	// ErrInvalidMaxToolRounds 工具轮数无效
	ErrInvalidMaxToolRounds = errors.New("max tool rounds must be positive")
)
