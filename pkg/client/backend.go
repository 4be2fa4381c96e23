// Package client 实现 LLM 客户端与工具循环
//
// Backend 负责一次网络往返，Adapter 负责格式转换，LLMClient
// 把两者与工具集合组装成完整的回合执行。
package client

import (
	"context"

	"github.com/easyops/tooluse-go/pkg/adapter"
	"github.com/easyops/tooluse-go/pkg/core/config"
	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
)

// Backend 定义 LLM 后端接口
//
// 一次 Send 对应一次补全请求。tools 是适配器产出的厂商
// wire 格式，nil 表示本次请求不提供工具。
type Backend interface {
	// Send 发送对话历史并返回原始响应
	Send(ctx context.Context, msgs []message.Message, tools []map[string]interface{}) (*adapter.Response, error)
	// Close 释放后端资源
	Close() error
}

// newBackend 按配置创建后端
func newBackend(cfg config.ModelConfig) (Backend, error) {
	switch cfg.ClientType {
	case config.ClientAnthropic:
		return newAnthropicBackend(cfg)
	case config.ClientOpenAI:
		return newOpenAIBackend(cfg)
	case config.ClientOllama:
		return newOllamaBackend(cfg)
	default:
		return nil, errors.WrapError(errors.ErrBackendConfig,
			"unsupported client type "+string(cfg.ClientType))
	}
}

// classifyStatus 把 HTTP 状态码映射到错误类别
func classifyStatus(status int, body string) error {
	switch {
	case status == 401 || status == 403:
		return errors.WrapError(errors.ErrInvalidAPIKey, body)
	case status == 429:
		return errors.WrapError(errors.ErrRateLimited, body)
	case status >= 500:
		return errors.WrapError(errors.ErrProviderUnavailable, body)
	default:
		return errors.WrapError(errors.ErrInvalidResponse, body)
	}
}
