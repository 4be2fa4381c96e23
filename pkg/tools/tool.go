// Package tools 提供工具注册表与工具集合
//
// 注册表是工具定义的唯一存放处，集合是注册表之上的不可变名称
// 视图，支持并、差等集合运算。工具调用统一经由集合分发。
package tools

import (
	"context"

	"github.com/easyops/tooluse-go/pkg/schema"
)

// Tool 定义工具的核心接口
//
// 工具以名称为身份键，同名即同一工具。
type Tool interface {
	// Name 返回工具唯一名称
	Name() string

	// Schema 返回工具的参数 Schema
	Schema() schema.ToolSchema

	// Invoke 执行工具
	//
	// 参数:
	//   - ctx: 上下文，用于超时和取消控制
	//   - args: 工具参数（由 LLM 提供）
	//
	// 返回:
	//   - interface{}: 工具执行结果（将字符串化后返回给 LLM）
	//   - error: 执行错误
	Invoke(ctx context.Context, args map[string]interface{}) (interface{}, error)
}
