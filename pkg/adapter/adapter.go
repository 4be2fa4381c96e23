// Package adapter 实现厂商适配层
//
// 对话历史与工具 Schema 使用内部的厂商无关表示，适配器负责
// 双向转换：Schema 转为厂商 wire 格式，厂商响应解析为统一的
// 工具调用列表与可回灌历史的消息。
package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/easyops/tooluse-go/pkg/core/message"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// Response 后端的一次原始响应
//
// Raw 保存厂商响应体原文，只由产生它的适配器解读。
type Response struct {
	// Raw 厂商响应体原文
	Raw json.RawMessage
	// Model 实际服务的模型名
	Model string
	// Usage token 用量统计
	Usage message.TokenUsage
}

// Adapter 定义厂商适配器接口
//
// 适配器是无状态的纯转换层，不发起网络请求。
type Adapter interface {
	// Name 适配器名称
	Name() string

	// FormatToolSchemas 将内部 Schema 转为厂商工具格式
	FormatToolSchemas(schemas []schema.ToolSchema) []map[string]interface{}

	// AppendResponse 将响应转为可加入对话历史的 assistant 消息
	AppendResponse(resp *Response) (message.Message, error)

	// ExtractToolCalls 从响应中提取工具调用列表
	//
	// 无工具调用时返回空列表，不报错。
	ExtractToolCalls(resp *Response) ([]message.ToolCall, error)

	// ExtractText 从响应中提取文本内容
	ExtractText(resp *Response) (string, error)

	// FormatToolResponse 将工具执行结果转为对话历史消息
	//
	// 工具报错时调用方传入字符串化的错误文本，消息形状与
	// 成功结果一致，由模型自行理解。
	FormatToolResponse(call message.ToolCall, result string) message.Message
}

// ForClientType 按客户端类型选择适配器
func ForClientType(clientType string) (Adapter, error) {
	switch clientType {
	case "anthropic":
		return NewAnthropicAdapter(), nil
	case "openai":
		return NewOpenAIAdapter(), nil
	case "ollama":
		return NewOllamaAdapter(), nil
	default:
		return nil, fmt.Errorf("no adapter for client type %q", clientType)
	}
}

// ResultText 将任意工具结果转为消息文本
//
// 字符串原样返回，其余值 JSON 编码。
func ResultText(result interface{}) string {
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

// propertySchema 构造 JSON Schema 的单个 property
//
// 可空参数的类型渲染为 [type, "null"]。
func propertySchema(p schema.ParameterSchema) map[string]interface{} {
	prop := map[string]interface{}{}
	if p.Nullable {
		prop["type"] = []interface{}{p.ParamType, "null"}
	} else {
		prop["type"] = p.ParamType
	}
	if p.Description != "" {
		prop["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		enum := make([]interface{}, len(p.Enum))
		for i, e := range p.Enum {
			enum[i] = e
		}
		prop["enum"] = enum
	}
	return prop
}

// objectSchema 构造 JSON Schema 的 object 形状
func objectSchema(s schema.ToolSchema) map[string]interface{} {
	properties := map[string]interface{}{}
	for _, p := range s.Parameters {
		properties[p.Name] = propertySchema(p)
	}
	required := make([]interface{}, len(s.Required))
	for i, r := range s.Required {
		required[i] = r
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
