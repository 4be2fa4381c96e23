// Package mcploader 管理到 MCP 服务器的连接，把远程工具装载进注册表
package mcploader

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/obs"
	"github.com/easyops/tooluse-go/pkg/protocols/mcp"
	"github.com/easyops/tooluse-go/pkg/schema"
	"github.com/easyops/tooluse-go/pkg/tools"
)

// Manager MCP 连接管理器
//
// 按服务器名管理客户端连接，并把服务器公布的工具包装为
// RemoteTool 装载进注册表。并发安全。
type Manager struct {
	connections map[string]*mcp.Client
	logger      obs.Logger
	mu          sync.Mutex
}

// ManagerOption 管理器配置选项
type ManagerOption func(*Manager)

// WithLogger 设置日志器
func WithLogger(logger obs.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager 创建连接管理器
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		connections: make(map[string]*mcp.Client),
		logger:      obs.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect 连接到 MCP 服务器
//
// target 以 http:// 或 https:// 开头时使用 HTTP 传输，
// 否则按空白拆分为命令行并启动 Stdio 子进程。
// 同名服务器已连接时记录警告后直接返回，保留现有连接。
func (m *Manager) Connect(ctx context.Context, name, target string) error {
	if m.IsConnected(name) {
		m.logger.Warn("server already connected, keeping existing connection", "server", name)
		return nil
	}

	transport, err := transportFor(target)
	if err != nil {
		return err
	}

	client := mcp.NewClient(transport)
	if err := client.Initialize(ctx); err != nil {
		client.Close()
		return err
	}

	m.mu.Lock()
	m.connections[name] = client
	m.mu.Unlock()

	m.logger.Info("connected to MCP server", "server", name, "target", target)
	return nil
}

// ConnectClient 纳管一个已建立的客户端连接
//
// 用于进程内服务器等自备传输的场景。重复的服务器名
// 与 Connect 同样保留现有连接。
func (m *Manager) ConnectClient(ctx context.Context, name string, client *mcp.Client) error {
	if m.IsConnected(name) {
		m.logger.Warn("server already connected, keeping existing connection", "server", name)
		return nil
	}

	if err := client.Initialize(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[name] = client
	return nil
}

// DiscoverTools 列出服务器公布的工具
func (m *Manager) DiscoverTools(ctx context.Context, server string) ([]mcp.ToolInfo, error) {
	client, err := m.client(server)
	if err != nil {
		return nil, err
	}
	return client.ListTools(ctx)
}

// LoadTools 把服务器公布的工具装载进注册表
//
// 每个远程工具包装为 RemoteTool 后注册，返回装载的工具名
// （升序）。与本地工具同名的远程工具按注册表的覆盖语义生效。
func (m *Manager) LoadTools(ctx context.Context, server string, registry *tools.Registry) ([]string, error) {
	client, err := m.client(server)
	if err != nil {
		return nil, err
	}

	infos, err := client.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([]string, 0, len(infos))
	for _, info := range infos {
		s := schema.FromInputSchema(info.Name, info.Description, info.InputSchema)

		remote, err := tools.NewRemoteTool(server, s, client)
		if err != nil {
			m.logger.Warn("skipping remote tool with invalid schema",
				"server", server, "tool", info.Name, "error", err)
			continue
		}
		if err := registry.Register(remote); err != nil {
			return nil, err
		}
		loaded = append(loaded, info.Name)
	}

	sort.Strings(loaded)
	m.logger.Info("loaded remote tools", "server", server, "count", len(loaded))
	return loaded, nil
}

// Disconnect 断开指定服务器
func (m *Manager) Disconnect(name string) error {
	m.mu.Lock()
	client, ok := m.connections[name]
	delete(m.connections, name)
	m.mu.Unlock()

	if !ok {
		return errors.WrapError(errors.ErrNotConnected, name)
	}
	return client.Close()
}

// DisconnectAll 断开所有服务器
//
// 单个连接的关闭失败记日志后继续，保证其余连接都被处理。
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	connections := m.connections
	m.connections = make(map[string]*mcp.Client)
	m.mu.Unlock()

	for name, client := range connections {
		if err := client.Close(); err != nil {
			m.logger.Warn("failed to close connection", "server", name, "error", err)
		}
	}
}

// IsConnected 检查服务器是否已连接
func (m *Manager) IsConnected(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.connections[name]
	return ok
}

// ConnectedServers 返回已连接的服务器名（升序）
func (m *Manager) ConnectedServers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.connections))
	for name := range m.connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) client(name string) (*mcp.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.connections[name]
	if !ok {
		return nil, errors.WrapError(errors.ErrNotConnected, name)
	}
	return client, nil
}

// transportFor 按目标形状选择传输方式
func transportFor(target string) (mcp.Transport, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return mcp.NewHTTPTransport(mcp.HTTPTransportConfig{URL: target}), nil
	}

	fields := strings.Fields(target)
	if len(fields) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidConfig, "empty connection target")
	}
	return mcp.NewStdioTransport(mcp.StdioTransportConfig{
		Command: fields[0],
		Args:    fields[1:],
	})
}
