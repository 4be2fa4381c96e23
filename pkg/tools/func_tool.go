package tools

import (
	"context"
	"fmt"
	"reflect"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// FuncTool 将普通 Go 函数包装为工具
//
// Schema 由生成器从函数签名产出，调用时按签名反射转参。
// 支持的函数形状：可选的首个 context.Context 参数，返回
// (result, error)、(result)、(error) 或无返回值。
type FuncTool struct {
	spec   schema.FuncSpec
	schema schema.ToolSchema
	fn     reflect.Value
	hasCtx bool
}

var _ Tool = (*FuncTool)(nil)

// NewFuncTool 从函数描述创建工具
//
// 使用指定的生成器产出 Schema。生成器为 nil 时使用反射生成器。
func NewFuncTool(ctx context.Context, spec schema.FuncSpec, gen schema.Generator) (*FuncTool, error) {
	if gen == nil {
		gen = schema.NewReflectGenerator()
	}

	s, err := gen.Generate(ctx, spec)
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidTool, err.Error())
	}

	rv := reflect.ValueOf(spec.Fn)
	rt := rv.Type()
	hasCtx := rt.NumIn() > 0 && rt.In(0) == reflect.TypeOf((*context.Context)(nil)).Elem()

	return &FuncTool{
		spec:   spec,
		schema: s,
		fn:     rv,
		hasCtx: hasCtx,
	}, nil
}

// NewFuncToolWithSchema 用现成 Schema 创建工具
//
// 用于从文件加载 Schema 或绕过生成器的场景。
func NewFuncToolWithSchema(spec schema.FuncSpec, s schema.ToolSchema) (*FuncTool, error) {
	rv := reflect.ValueOf(spec.Fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, errors.WrapError(errors.ErrInvalidTool, "Fn is not a function")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.WrapError(errors.ErrInvalidTool, err.Error())
	}

	rt := rv.Type()
	hasCtx := rt.NumIn() > 0 && rt.In(0) == reflect.TypeOf((*context.Context)(nil)).Elem()

	return &FuncTool{
		spec:   spec,
		schema: s,
		fn:     rv,
		hasCtx: hasCtx,
	}, nil
}

// Name 返回工具名称
func (t *FuncTool) Name() string {
	return t.schema.Name
}

// Schema 返回参数 Schema
func (t *FuncTool) Schema() schema.ToolSchema {
	return t.schema
}

// Invoke 执行工具
//
// 参数先按 Schema 验证，再按函数签名转换类型后调用。
// 函数 panic 归类为执行失败，不让其冒泡。
func (t *FuncTool) Invoke(ctx context.Context, args map[string]interface{}) (result interface{}, err error) {
	if err := Validate(t.schema, args); err != nil {
		return nil, err
	}

	in, err := t.buildInputs(ctx, args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.WrapError(errors.ErrToolExecutionFailed,
				fmt.Sprintf("tool %s panicked: %v", t.Name(), r))
		}
	}()

	out := t.fn.Call(in)
	return t.collectOutputs(out)
}

// buildInputs 按参数顺序构造反射调用入参
func (t *FuncTool) buildInputs(ctx context.Context, args map[string]interface{}) ([]reflect.Value, error) {
	rt := t.fn.Type()

	in := make([]reflect.Value, 0, rt.NumIn())
	offset := 0
	if t.hasCtx {
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}

	for i, ps := range t.spec.Params {
		target := rt.In(offset + i)

		value, present := args[ps.Name]
		if !present {
			if ps.HasDefault {
				value = ps.Default
			} else if target.Kind() == reflect.Ptr {
				in = append(in, reflect.Zero(target))
				continue
			} else {
				// Validate 已拦截缺失的必需参数，此处兜底
				return nil, errors.WrapError(errors.ErrInvalidToolArgs,
					fmt.Sprintf("missing parameter %q", ps.Name))
			}
		}

		rv, err := convertArg(ps.Name, value, target)
		if err != nil {
			return nil, err
		}
		in = append(in, rv)
	}

	return in, nil
}

// collectOutputs 归集函数返回值
func (t *FuncTool) collectOutputs(out []reflect.Value) (interface{}, error) {
	var result interface{}
	for _, v := range out {
		if v.Type() == reflect.TypeOf((*error)(nil)).Elem() {
			if !v.IsNil() {
				callErr := v.Interface().(error)
				if errors.IsRecoverable(callErr) {
					return nil, callErr
				}
				return nil, errors.WrapError(errors.ErrToolExecutionFailed, callErr.Error())
			}
			continue
		}
		result = v.Interface()
	}
	return result, nil
}

// convertArg 将 JSON 解码值转换为函数参数类型
//
// JSON 数字统一解码为 float64，这里按目标类型收窄。
// 可空参数的 nil 值转换为零指针。
func convertArg(name string, value interface{}, target reflect.Type) (reflect.Value, error) {
	if target.Kind() == reflect.Ptr {
		if value == nil {
			return reflect.Zero(target), nil
		}
		elem, err := convertArg(name, value, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	if value == nil {
		return reflect.Value{}, errors.WrapError(errors.ErrInvalidToolArgs,
			fmt.Sprintf("parameter %q is not nullable", name))
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f, ok := value.(float64); ok && f == float64(int64(f)) {
			return reflect.ValueOf(int64(f)).Convert(target), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f, ok := value.(float64); ok && f >= 0 && f == float64(uint64(f)) {
			return reflect.ValueOf(uint64(f)).Convert(target), nil
		}
	case reflect.Float32, reflect.Float64:
		if f, ok := value.(float64); ok {
			return reflect.ValueOf(f).Convert(target), nil
		}
		if i, ok := value.(int); ok {
			return reflect.ValueOf(float64(i)).Convert(target), nil
		}
	default:
		if rv.Type().ConvertibleTo(target) && rv.Kind() == target.Kind() {
			return rv.Convert(target), nil
		}
	}

	return reflect.Value{}, errors.WrapError(errors.ErrInvalidToolArgs,
		fmt.Sprintf("parameter %q: cannot use %T as %s", name, value, target))
}
