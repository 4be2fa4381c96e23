package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// Registry 工具注册表
//
// 以名称为键管理工具定义，并发安全。重复注册同名工具时
// 后注册者覆盖先注册者（last-write-wins）。
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry 创建新的工具注册表
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register 注册工具
//
// 同名工具被静默覆盖，覆盖语义让重复加载成为幂等操作。
func (r *Registry) Register(tool Tool) error {
	if tool == nil || tool.Name() == "" {
		return errors.ErrInvalidTool
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name()] = tool
	return nil
}

// MustRegister 注册工具，失败则 panic
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// RegisterAll 批量注册工具
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// RegisterFunc 从函数描述生成 Schema 并注册
//
// 返回生成的工具，便于调用方直接使用。
func (r *Registry) RegisterFunc(ctx context.Context, spec schema.FuncSpec, gen schema.Generator) (*FuncTool, error) {
	tool, err := NewFuncTool(ctx, spec, gen)
	if err != nil {
		return nil, err
	}
	if err := r.Register(tool); err != nil {
		return nil, err
	}
	return tool, nil
}

// Get 获取工具
//
// 工具不存在时报错并列出当前可用的工具名。
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, errors.WrapError(errors.ErrUnknownTool,
			fmt.Sprintf("tool %q not registered, available: [%s]",
				name, strings.Join(r.namesLocked(), ", ")))
	}

	return tool, nil
}

// Has 检查工具是否存在
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[name]
	return exists
}

// Unregister 取消注册工具
//
// 工具不存在时报 ErrUnknownTool。
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return errors.WrapError(errors.ErrUnknownTool, name)
	}

	delete(r.tools, name)
	return nil
}

// AvailableTools 返回所有已注册工具名的快照（升序）
func (r *Registry) AvailableTools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Count 返回已注册工具数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Reset 清空所有已注册工具
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry 默认的全局工具注册表
var DefaultRegistry = NewRegistry()
