package message

import "errors"

// 消息验证相关错误
var (
	// ErrInvalidRole 角色无效
	ErrInvalidRole = errors.New("invalid message role")
	// ErrEmptyContent 内容为空
	ErrEmptyContent = errors.New("message content is empty")
)
