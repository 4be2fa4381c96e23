package tools

import (
	"context"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// Session 定义远程工具依赖的会话能力
//
// 由 MCP 客户端实现。会话负责传输与协议细节，
// RemoteTool 只关心按名调用。
type Session interface {
	// CallTool 调用远程工具并返回文本结果
	CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

// RemoteTool 由远程服务器托管的工具
//
// Schema 来自服务器公布的定义，执行通过会话转发。身份只由
// 工具名决定，与来源服务器无关：同名远程工具与本地工具在
// 注册表中是同一个槽位。
type RemoteTool struct {
	server  string
	schema  schema.ToolSchema
	session Session
}

var _ Tool = (*RemoteTool)(nil)

// NewRemoteTool 创建远程工具
func NewRemoteTool(server string, s schema.ToolSchema, session Session) (*RemoteTool, error) {
	if session == nil {
		return nil, errors.WrapError(errors.ErrInvalidTool, "remote tool needs a session")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.WrapError(errors.ErrInvalidTool, err.Error())
	}

	return &RemoteTool{
		server:  server,
		schema:  s,
		session: session,
	}, nil
}

// Name 返回工具名称
func (t *RemoteTool) Name() string {
	return t.schema.Name
}

// Server 返回来源服务器标识
func (t *RemoteTool) Server() string {
	return t.server
}

// Schema 返回参数 Schema
func (t *RemoteTool) Schema() schema.ToolSchema {
	return t.schema
}

// Invoke 通过会话调用远程工具
//
// 参数先按服务器公布的 Schema 本地验证，省一次远程往返。
func (t *RemoteTool) Invoke(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if err := Validate(t.schema, args); err != nil {
		return nil, err
	}

	result, err := t.session.CallTool(ctx, t.schema.Name, args)
	if err != nil {
		if errors.IsRecoverable(err) || errors.Is(err, errors.ErrNotConnected) ||
			errors.Is(err, errors.ErrConnectionFailed) {
			return nil, err
		}
		return nil, errors.WrapError(errors.ErrToolExecutionFailed, err.Error())
	}
	return result, nil
}
