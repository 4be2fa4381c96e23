package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/easyops/tooluse-go/pkg/core/errors"
)

// Client MCP 客户端
//
// 连接 MCP 服务器，发现并调用远程工具。所有方法在未初始化时
// 自动完成初始化握手。
//
// 使用示例:
//
//	transport, err := mcp.NewStdioTransport(mcp.StdioTransportConfig{
//	    Command: "python",
//	    Args:    []string{"server.py"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := mcp.NewClient(transport)
//	defer client.Close()
//
//	tools, err := client.ListTools(ctx)
type Client struct {
	transport   Transport
	requestID   atomic.Int64
	initialized atomic.Bool
	serverInfo  *Implementation
	mu          sync.Mutex
}

// NewClient 创建 MCP 客户端
func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
	}
}

// Initialize 初始化客户端连接
//
// 完成 initialize 握手并发送 initialized 通知。重复调用是无操作。
func (c *Client) Initialize(ctx context.Context) error {
	if c.initialized.Load() {
		return nil
	}

	params := InitializeParams{
		ProtocolVersion: MCPVersion,
		Capabilities: Capabilities{
			Tools: &ToolsCapability{},
		},
		ClientInfo: Implementation{
			Name:    "tooluse-go",
			Version: "1.0.0",
		},
	}

	result, err := c.call(ctx, MethodInitialize, params)
	if err != nil {
		return errors.WrapError(errors.ErrConnectionFailed, "initialize failed: "+err.Error())
	}

	var initResult InitializeResult
	if err := json.Unmarshal(result, &initResult); err != nil {
		return errors.WrapError(errors.ErrConnectionFailed, "failed to parse initialize result: "+err.Error())
	}

	c.serverInfo = &initResult.ServerInfo

	if err := c.notify(ctx, MethodInitialized, nil); err != nil {
		return errors.WrapError(errors.ErrConnectionFailed, "failed to send initialized notification: "+err.Error())
	}

	c.initialized.Store(true)
	return nil
}

// ListTools 列出服务器公布的所有工具
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	result, err := c.call(ctx, MethodListTools, nil)
	if err != nil {
		return nil, errors.WrapError(errors.ErrConnectionFailed, "list tools failed: "+err.Error())
	}

	var listResult ListToolsResult
	if err := json.Unmarshal(result, &listResult); err != nil {
		return nil, errors.WrapError(errors.ErrConnectionFailed, "failed to parse list tools result: "+err.Error())
	}

	tools := make([]ToolInfo, len(listResult.Tools))
	for i, t := range listResult.Tools {
		var inputSchema map[string]interface{}
		if len(t.InputSchema) > 0 {
			if err := json.Unmarshal(t.InputSchema, &inputSchema); err != nil {
				inputSchema = make(map[string]interface{})
			}
		}
		tools[i] = ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: inputSchema,
		}
	}

	return tools, nil
}

// CallTool 调用远程工具并返回文本结果
//
// 服务器报告的工具级错误 (isError) 归类为执行失败，
// 协议与传输层错误归类为连接失败。
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (string, error) {
	if err := c.Initialize(ctx); err != nil {
		return "", err
	}

	params := CallToolParams{
		Name:      name,
		Arguments: arguments,
	}

	result, err := c.call(ctx, MethodCallTool, params)
	if err != nil {
		return "", errors.WrapError(errors.ErrConnectionFailed, "call tool failed: "+err.Error())
	}

	var callResult CallToolResult
	if err := json.Unmarshal(result, &callResult); err != nil {
		return "", errors.WrapError(errors.ErrConnectionFailed, "failed to parse call tool result: "+err.Error())
	}

	if callResult.IsError {
		detail := "tool returned error"
		if len(callResult.Content) > 0 && callResult.Content[0].Text != "" {
			detail = callResult.Content[0].Text
		}
		return "", errors.WrapError(errors.ErrToolExecutionFailed, detail)
	}

	var text string
	for _, content := range callResult.Content {
		if content.Type == "text" && content.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += content.Text
		}
	}

	return text, nil
}

// Ping 测试服务器连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Initialize(ctx); err != nil {
		return err
	}

	_, err := c.call(ctx, MethodPing, nil)
	return err
}

// ServerInfo 返回服务器信息（初始化前为 nil）
func (c *Client) ServerInfo() *Implementation {
	return c.serverInfo
}

// Close 关闭客户端连接
func (c *Client) Close() error {
	c.initialized.Store(false)
	return c.transport.Close()
}

// call 发送请求并等待响应
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.requestID.Add(1)

	request, err := NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	response, err := c.transport.Send(ctx, request)
	if err != nil {
		return nil, err
	}

	resp, err := ParseResponse(response)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	return resp.Result, nil
}

// notify 发送通知（不等待响应体）
func (c *Client) notify(ctx context.Context, method string, params interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 通知没有 ID
	request, err := NewRequest(nil, method, params)
	if err != nil {
		return err
	}

	_, err = c.transport.Send(ctx, request)
	return err
}
