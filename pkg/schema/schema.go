// Package schema 定义工具的参数模型与 Schema 生成能力
//
// ToolSchema 是内部的厂商无关表示，按 Anthropic 的扁平格式组织，
// 由各适配器负责转换为具体后端期望的 wire 格式。
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// 参数类型标签（固定基础类型集合）
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// ParameterSchema 定义单个工具参数
//
// 构造后不可变。可选字段序列化时缺省省略（omitempty），
// 而不是输出 null。
type ParameterSchema struct {
	// Name 参数名（在 ToolSchema 内唯一）
	Name string `json:"name"`
	// ParamType 类型标签：string、integer、number、boolean、array、object
	ParamType string `json:"param_type"`
	// Description 参数描述（可选）
	Description string `json:"description,omitempty"`
	// Enum 枚举值（可选）
	Enum []string `json:"enum,omitempty"`
	// Nullable 是否可空（可选）
	Nullable bool `json:"nullable,omitempty"`
}

// ToolSchema 定义工具的完整 Schema
type ToolSchema struct {
	// Name 工具名称（身份键）
	Name string `json:"name"`
	// Description 工具描述
	Description string `json:"description"`
	// Parameters 参数列表（顺序无关，名称唯一）
	Parameters []ParameterSchema `json:"parameters"`
	// Required 必需参数名列表（必须是参数名的子集）
	Required []string `json:"required"`
}

// Validate 验证 Schema 的结构有效性
//
// 参数名必须唯一，Required 必须是参数名的子集。
func (s *ToolSchema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("tool schema has no name")
	}

	names := make(map[string]bool, len(s.Parameters))
	for _, p := range s.Parameters {
		if names[p.Name] {
			return fmt.Errorf("duplicate parameter %q in schema %q", p.Name, s.Name)
		}
		names[p.Name] = true
	}

	for _, r := range s.Required {
		if !names[r] {
			return fmt.Errorf("required parameter %q not declared in schema %q", r, s.Name)
		}
	}

	return nil
}

// Parameter 按名称查找参数
func (s *ToolSchema) Parameter(name string) (ParameterSchema, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSchema{}, false
}

// Equal 判断两个 Schema 是否等价
//
// 参数顺序无关；Required 顺序无关。
func (s *ToolSchema) Equal(other *ToolSchema) bool {
	if s.Name != other.Name || s.Description != other.Description {
		return false
	}
	if len(s.Parameters) != len(other.Parameters) || len(s.Required) != len(other.Required) {
		return false
	}

	for _, p := range s.Parameters {
		q, ok := other.Parameter(p.Name)
		if !ok || p.ParamType != q.ParamType || p.Description != q.Description ||
			p.Nullable != q.Nullable || !equalStrings(p.Enum, q.Enum) {
			return false
		}
	}

	a := append([]string(nil), s.Required...)
	b := append([]string(nil), other.Required...)
	sort.Strings(a)
	sort.Strings(b)
	return equalStrings(a, b)
}

// Compatible 判断两个 Schema 是否兼容
//
// 兼容指参数名/类型集合和必需集合一致，描述可以不同。
// 同名但不兼容的两个工具属于调用方需要在构造期避免的缺陷类别。
func (s *ToolSchema) Compatible(other *ToolSchema) bool {
	if len(s.Parameters) != len(other.Parameters) {
		return false
	}
	for _, p := range s.Parameters {
		q, ok := other.Parameter(p.Name)
		if !ok || p.ParamType != q.ParamType {
			return false
		}
	}

	a := append([]string(nil), s.Required...)
	b := append([]string(nil), other.Required...)
	sort.Strings(a)
	sort.Strings(b)
	return equalStrings(a, b)
}

// ToJSON 序列化为规范 JSON 形式
func (s *ToolSchema) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(data), nil
}

// FromJSON 从规范 JSON 形式反序列化
//
// serialize→deserialize 往返必须无损。
func FromJSON(data []byte) (ToolSchema, error) {
	var s ToolSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return ToolSchema{}, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return ToolSchema{}, err
	}
	return s, nil
}

// ToFile 将 Schema 写入 JSON 文件
func (s *ToolSchema) ToFile(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(data), 0o644)
}

// FromFile 从 JSON 文件读取 Schema
func FromFile(path string) (ToolSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ToolSchema{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	return FromJSON(data)
}

// FromInputSchema 从 JSON Schema 形状的输入转换为 ToolSchema
//
// 输入为 MCP 服务器公布的 {"properties": {...}, "required": [...]} 形状。
// 缺失的属性类型默认按 string 处理。
func FromInputSchema(name, description string, input map[string]interface{}) ToolSchema {
	var parameters []ParameterSchema
	var required []string

	if props, ok := input["properties"].(map[string]interface{}); ok {
		for propName, raw := range props {
			prop, _ := raw.(map[string]interface{})
			p := ParameterSchema{Name: propName, ParamType: TypeString}
			if t, ok := prop["type"].(string); ok && t != "" {
				p.ParamType = t
			}
			if d, ok := prop["description"].(string); ok {
				p.Description = d
			}
			if e, ok := prop["enum"].([]interface{}); ok {
				for _, v := range e {
					if s, ok := v.(string); ok {
						p.Enum = append(p.Enum, s)
					}
				}
			}
			if n, ok := prop["nullable"].(bool); ok {
				p.Nullable = n
			}
			parameters = append(parameters, p)
		}
	}

	if req, ok := input["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}

	return ToolSchema{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		Required:    required,
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
