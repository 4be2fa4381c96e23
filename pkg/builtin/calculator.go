// Package builtin 提供内置工具
package builtin

import (
	"context"
	"fmt"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/schema"
	"github.com/easyops/tooluse-go/pkg/tools"
)

// CalculatorSpecs 返回四则运算工具的函数描述
func CalculatorSpecs() []schema.FuncSpec {
	return []schema.FuncSpec{
		{
			Name: "add",
			Doc:  "Add two numbers",
			Fn:   func(a, b float64) float64 { return a + b },
			Params: []schema.ParamSpec{
				{Name: "a", Doc: "First operand"},
				{Name: "b", Doc: "Second operand"},
			},
		},
		{
			Name: "subtract",
			Doc:  "Subtract the second number from the first",
			Fn:   func(a, b float64) float64 { return a - b },
			Params: []schema.ParamSpec{
				{Name: "a", Doc: "Number to subtract from"},
				{Name: "b", Doc: "Number to subtract"},
			},
		},
		{
			Name: "multiply",
			Doc:  "Multiply two numbers",
			Fn:   func(a, b float64) float64 { return a * b },
			Params: []schema.ParamSpec{
				{Name: "a", Doc: "First factor"},
				{Name: "b", Doc: "Second factor"},
			},
		},
		{
			Name: "divide",
			Doc:  "Divide the first number by the second",
			Fn: func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, errors.WrapError(errors.ErrInvalidToolArgs, "division by zero")
				}
				return a / b, nil
			},
			Params: []schema.ParamSpec{
				{Name: "a", Doc: "Dividend"},
				{Name: "b", Doc: "Divisor, must be non-zero"},
			},
		},
	}
}

// RegisterCalculator 把四则运算工具注册进注册表
//
// 返回注册的工具名。
func RegisterCalculator(ctx context.Context, registry *tools.Registry) ([]string, error) {
	specs := CalculatorSpecs()
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		if _, err := registry.RegisterFunc(ctx, spec, nil); err != nil {
			return nil, fmt.Errorf("register %s: %w", spec.Name, err)
		}
		names = append(names, spec.Name)
	}
	return names, nil
}
