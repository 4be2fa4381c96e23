package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/obs"
	"github.com/easyops/tooluse-go/pkg/schema"
)

// ToolCollection 注册表之上的不可变名称视图
//
// 集合只持有名称集和注册表引用，不复制工具定义。集合运算
// (Union、Difference、Without) 产出新集合，原集合不变。
// 参与运算的集合应构建在同一注册表上。
type ToolCollection struct {
	registry *Registry
	names    map[string]bool
	logger   obs.Logger
}

// CollectionOption 集合配置选项
type CollectionOption func(*ToolCollection)

// WithCollectionLogger 设置日志器
func WithCollectionLogger(logger obs.Logger) CollectionOption {
	return func(c *ToolCollection) {
		c.logger = logger
	}
}

// NewCollection 创建工具集合
//
// 所有名称必须已注册，未知名称报 ErrUnknownTool 并一并列出。
func NewCollection(registry *Registry, names []string, opts ...CollectionOption) (*ToolCollection, error) {
	if registry == nil {
		return nil, errors.WrapError(errors.ErrInvalidConfig, "collection needs a registry")
	}

	var missing []string
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if !registry.Has(name) {
			missing = append(missing, name)
			continue
		}
		set[name] = true
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.WrapError(errors.ErrUnknownTool,
			fmt.Sprintf("unknown tools: [%s], available: [%s]",
				strings.Join(missing, ", "), strings.Join(registry.AvailableTools(), ", ")))
	}

	c := &ToolCollection{
		registry: registry,
		names:    set,
		logger:   obs.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AllTools 以注册表当前全部工具创建集合
//
// 名称集是构建时刻的快照，之后注册的工具不会进入集合。
func AllTools(registry *Registry, opts ...CollectionOption) (*ToolCollection, error) {
	return NewCollection(registry, registry.AvailableTools(), opts...)
}

// Union 并集
func (c *ToolCollection) Union(other *ToolCollection) *ToolCollection {
	set := make(map[string]bool, len(c.names)+len(other.names))
	for name := range c.names {
		set[name] = true
	}
	for name := range other.names {
		set[name] = true
	}
	return c.derive(set)
}

// Difference 差集（c 中有而 other 中没有的工具）
func (c *ToolCollection) Difference(other *ToolCollection) *ToolCollection {
	set := make(map[string]bool, len(c.names))
	for name := range c.names {
		if !other.names[name] {
			set[name] = true
		}
	}
	return c.derive(set)
}

// Without 按名称剔除
//
// 剔除不在集合中的名称是无操作，不报错。
func (c *ToolCollection) Without(names ...string) *ToolCollection {
	set := make(map[string]bool, len(c.names))
	for name := range c.names {
		set[name] = true
	}
	for _, name := range names {
		delete(set, name)
	}
	return c.derive(set)
}

// Contains 检查工具是否在集合中
func (c *ToolCollection) Contains(name string) bool {
	return c.names[name]
}

// Names 返回集合中的工具名（升序）
func (c *ToolCollection) Names() []string {
	names := make([]string, 0, len(c.names))
	for name := range c.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len 返回集合大小
func (c *ToolCollection) Len() int {
	return len(c.names)
}

// Schemas 返回集合中所有工具的 Schema（按名称升序）
//
// 集合构建后从注册表中消失的工具记警告后跳过，
// 不让单个失效条目阻断整个列表。
func (c *ToolCollection) Schemas() []schema.ToolSchema {
	schemas := make([]schema.ToolSchema, 0, len(c.names))
	for _, name := range c.Names() {
		tool, err := c.registry.Get(name)
		if err != nil {
			c.logger.Warn("tool vanished from registry, skipping schema", "tool", name)
			continue
		}
		schemas = append(schemas, tool.Schema())
	}
	return schemas
}

// Invoke 调用集合中的工具
//
// 不在集合中的工具报 ErrNotInCollection，即使它已注册。
// 可空参数的哨兵值在调用前规整为 nil。
func (c *ToolCollection) Invoke(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	if !c.Contains(name) {
		return nil, errors.WrapError(errors.ErrNotInCollection,
			fmt.Sprintf("tool %q not in collection [%s]", name, strings.Join(c.Names(), ", ")))
	}

	tool, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	args = CoerceNullable(tool.Schema(), args)

	return tool.Invoke(ctx, args)
}

func (c *ToolCollection) derive(set map[string]bool) *ToolCollection {
	return &ToolCollection{
		registry: c.registry,
		names:    set,
		logger:   c.logger,
	}
}
