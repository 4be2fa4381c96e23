// Package errors 定义工具编排框架的通用错误类型
package errors

import (
	"errors"
	"fmt"
)

// 通用错误
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrContextCanceled 上下文被取消
	ErrContextCanceled = errors.New("context canceled")
)

// LLM 后端相关错误
var (
	// ErrBackendConfig 后端必需参数缺失（构造时抛出，不可恢复）
	ErrBackendConfig = errors.New("backend configuration error")
	// ErrInvalidAPIKey API 密钥无效
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrRateLimited 请求被限速
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderUnavailable 提供商不可用
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrInvalidResponse LLM 响应无效
	ErrInvalidResponse = errors.New("invalid LLM response")
)

// Tool 相关错误
var (
	// ErrUnknownTool 工具未在注册表中注册
	ErrUnknownTool = errors.New("unknown tool")
	// ErrNotInCollection 工具已注册但不属于当前集合
	ErrNotInCollection = errors.New("tool not in this collection")
	// ErrToolExecutionFailed 工具执行失败
	ErrToolExecutionFailed = errors.New("tool execution failed")
	// ErrInvalidToolArgs 工具参数无效
	ErrInvalidToolArgs = errors.New("invalid tool arguments")
	// ErrInvalidTool 无效的工具
	ErrInvalidTool = errors.New("invalid tool")
)

// 远程工具服务器相关错误
var (
	// ErrConnectionFailed 连接或发现远程工具失败
	ErrConnectionFailed = errors.New("remote server connection failed")
	// ErrNotConnected 服务器未连接
	ErrNotConnected = errors.New("server not connected")
)

// Is 判断错误链中是否包含目标错误
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 在错误链中查找目标类型的错误
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// WrapError 包装错误并添加上下文信息
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsRecoverable 判断工具执行错误是否为预期类错误
//
// 预期类错误在工具循环中被格式化为错误响应消息返回给模型，
// 循环继续执行；其余错误中止整个回合并向调用方传播。
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidToolArgs) ||
		errors.Is(err, ErrToolExecutionFailed)
}

// IsFatal 判断错误是否为致命错误（不可恢复）
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrBackendConfig) ||
		errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrInvalidConfig)
}
