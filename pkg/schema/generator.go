package schema

import (
	"context"
	"fmt"
	"reflect"
)

// Generator 定义 Schema 生成器接口
//
// 两种实现：ReflectGenerator 纯反射生成，LLMGenerator 在反射
// 基础上用 LLM 补全描述。
type Generator interface {
	// Generate 从函数描述生成工具 Schema
	Generate(ctx context.Context, spec FuncSpec) (ToolSchema, error)
}

// ParamSpec 描述注册函数的单个参数
//
// 反射只能得到参数类型，名称、文档、默认值需要注册方显式提供。
type ParamSpec struct {
	// Name 参数名
	Name string
	// Doc 参数描述（可选）
	Doc string
	// Enum 枚举值（可选），非空时类型标签固定为 string
	Enum []string
	// Default 默认值（可选）
	Default interface{}
	// HasDefault 是否声明了默认值，声明默认值的参数不进入 Required
	HasDefault bool
}

// FuncSpec 描述一个待注册的函数
type FuncSpec struct {
	// Name 工具名称
	Name string
	// Doc 工具描述（可选，缺省生成占位描述）
	Doc string
	// Fn 函数本体，首个 context.Context 参数不计入 Schema
	Fn interface{}
	// Params 业务参数描述，顺序与 Fn 的参数顺序一致
	Params []ParamSpec
}

// ReflectGenerator 基于反射的 Schema 生成器
//
// 确定性、无副作用：同一输入总是产出同一 Schema。
type ReflectGenerator struct{}

var _ Generator = (*ReflectGenerator)(nil)

// NewReflectGenerator 创建反射生成器
func NewReflectGenerator() *ReflectGenerator {
	return &ReflectGenerator{}
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// Generate 通过反射函数签名生成 Schema
//
// 指针参数视为可空，枚举参数强制为 string 类型，
// 未声明默认值的参数进入 Required。
func (g *ReflectGenerator) Generate(_ context.Context, spec FuncSpec) (ToolSchema, error) {
	if spec.Name == "" {
		return ToolSchema{}, fmt.Errorf("function spec has no name")
	}

	rt := reflect.TypeOf(spec.Fn)
	if rt == nil || rt.Kind() != reflect.Func {
		return ToolSchema{}, fmt.Errorf("spec %q: Fn is not a function", spec.Name)
	}

	// 首个 context.Context 参数是调用约定的一部分，不对模型可见
	offset := 0
	if rt.NumIn() > 0 && rt.In(0) == ctxType {
		offset = 1
	}

	if rt.NumIn()-offset != len(spec.Params) {
		return ToolSchema{}, fmt.Errorf("spec %q: function takes %d parameters but %d declared",
			spec.Name, rt.NumIn()-offset, len(spec.Params))
	}

	description := spec.Doc
	if description == "" {
		description = fmt.Sprintf("Function %s", spec.Name)
	}

	parameters := make([]ParameterSchema, 0, len(spec.Params))
	required := make([]string, 0, len(spec.Params))

	for i, ps := range spec.Params {
		t := rt.In(offset + i)

		nullable := false
		if t.Kind() == reflect.Ptr {
			nullable = true
			t = t.Elem()
		}

		p := ParameterSchema{
			Name:        ps.Name,
			ParamType:   typeTag(t),
			Description: ps.Doc,
			Nullable:    nullable,
		}
		if len(ps.Enum) > 0 {
			p.ParamType = TypeString
			p.Enum = append([]string(nil), ps.Enum...)
		}

		parameters = append(parameters, p)
		if !ps.HasDefault {
			required = append(required, ps.Name)
		}
	}

	schema := ToolSchema{
		Name:        spec.Name,
		Description: description,
		Parameters:  parameters,
		Required:    required,
	}
	if err := schema.Validate(); err != nil {
		return ToolSchema{}, err
	}
	return schema, nil
}

// typeTag 将 Go 类型映射为 Schema 类型标签
//
// 无法识别的类型回退为 string。
func typeTag(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Bool:
		return TypeBoolean
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	default:
		return TypeString
	}
}
