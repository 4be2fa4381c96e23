package mcploader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/easyops/tooluse-go/pkg/protocols/mcp"
	"github.com/easyops/tooluse-go/pkg/schema"
	"github.com/easyops/tooluse-go/pkg/tools"
)

// ServeCollection 把集合中的工具公布到 MCP 服务器
//
// 与 LoadTools 互为镜像：LoadTools 把远程工具拉进注册表，
// ServeCollection 把本地集合推给外部客户端。
func ServeCollection(server *mcp.Server, collection *tools.ToolCollection) {
	for _, s := range collection.Schemas() {
		name := s.Name
		server.AddTool(mcp.ServerTool{
			Name:        name,
			Description: s.Description,
			InputSchema: inputSchemaFor(s),
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				result, err := collection.Invoke(ctx, name, args)
				if err != nil {
					return "", err
				}
				return stringify(result), nil
			},
		})
	}
}

// inputSchemaFor 转换为 MCP 公布的 JSON Schema 形状
func inputSchemaFor(s schema.ToolSchema) map[string]interface{} {
	properties := map[string]interface{}{}
	for _, p := range s.Parameters {
		prop := map[string]interface{}{"type": p.ParamType}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Nullable {
			prop["nullable"] = true
		}
		properties[p.Name] = prop
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   s.Required,
	}
}

func stringify(result interface{}) string {
	switch v := result.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
