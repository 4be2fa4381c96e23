package tools

import (
	"fmt"
	"reflect"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// Validate 验证参数是否符合 Schema
//
// 检查必需参数齐全、无未声明参数、类型与枚举约束成立。
// 所有违例统一归类为 ErrInvalidToolArgs。
func Validate(s schema.ToolSchema, args map[string]interface{}) error {
	for _, req := range s.Required {
		if _, ok := args[req]; !ok {
			return errors.WrapError(errors.ErrInvalidToolArgs,
				fmt.Sprintf("missing required parameter %q for tool %q", req, s.Name))
		}
	}

	for name, value := range args {
		p, exists := s.Parameter(name)
		if !exists {
			return errors.WrapError(errors.ErrInvalidToolArgs,
				fmt.Sprintf("unexpected parameter %q for tool %q", name, s.Name))
		}
		if err := validateValue(p, value); err != nil {
			return err
		}
	}

	return nil
}

// validateValue 验证单个参数值
func validateValue(p schema.ParameterSchema, value interface{}) error {
	if value == nil {
		if p.Nullable {
			return nil
		}
		return errors.WrapError(errors.ErrInvalidToolArgs,
			fmt.Sprintf("parameter %q is not nullable", p.Name))
	}

	if err := validateType(p.Name, p.ParamType, value); err != nil {
		return err
	}

	if len(p.Enum) > 0 {
		str, _ := value.(string)
		for _, e := range p.Enum {
			if str == e {
				return nil
			}
		}
		return errors.WrapError(errors.ErrInvalidToolArgs,
			fmt.Sprintf("parameter %q: value %q not in enum %v", p.Name, str, p.Enum))
	}

	return nil
}

// validateType 验证值与类型标签相容
//
// JSON 数字统一解码为 float64，integer 标签额外要求整数值。
func validateType(name, tag string, value interface{}) error {
	kind := reflect.ValueOf(value).Kind()

	switch tag {
	case schema.TypeString:
		if kind != reflect.String {
			return typeMismatch(name, tag, value)
		}
	case schema.TypeInteger:
		switch kind {
		case reflect.Int, reflect.Int32, reflect.Int64:
		case reflect.Float64:
			f := value.(float64)
			if f != float64(int64(f)) {
				return typeMismatch(name, tag, value)
			}
		default:
			return typeMismatch(name, tag, value)
		}
	case schema.TypeNumber:
		switch kind {
		case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		default:
			return typeMismatch(name, tag, value)
		}
	case schema.TypeBoolean:
		if kind != reflect.Bool {
			return typeMismatch(name, tag, value)
		}
	case schema.TypeArray:
		if kind != reflect.Slice && kind != reflect.Array {
			return typeMismatch(name, tag, value)
		}
	case schema.TypeObject:
		if kind != reflect.Map && kind != reflect.Struct {
			return typeMismatch(name, tag, value)
		}
	}

	return nil
}

func typeMismatch(name, tag string, value interface{}) error {
	return errors.WrapError(errors.ErrInvalidToolArgs,
		fmt.Sprintf("parameter %q: expected %s, got %T", name, tag, value))
}

// CoerceNullable 规整可空参数的哨兵值
//
// LLM 对可空参数常返回 ""、"null"、"None" 一类的字符串哨兵，
// 统一替换为 nil。返回新 map，不修改入参。
func CoerceNullable(s schema.ToolSchema, args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for name, value := range args {
		p, exists := s.Parameter(name)
		if exists && p.Nullable && isNullSentinel(value) {
			out[name] = nil
			continue
		}
		out[name] = value
	}
	return out
}

func isNullSentinel(value interface{}) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	return s == "" || s == "null" || s == "None"
}
