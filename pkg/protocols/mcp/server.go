package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// ToolHandler 工具处理函数类型
type ToolHandler func(ctx context.Context, arguments map[string]interface{}) (string, error)

// ServerTool 服务器工具定义
type ServerTool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     ToolHandler
}

// Server MCP 服务器
//
// 将本地工具以 MCP 协议暴露给外部客户端。
//
// 使用示例:
//
//	server := mcp.NewServer("calc-server", "Arithmetic over MCP")
//
//	server.AddTool(mcp.ServerTool{
//	    Name:        "add",
//	    Description: "Add two numbers",
//	    InputSchema: map[string]interface{}{
//	        "type": "object",
//	        "properties": map[string]interface{}{
//	            "a": map[string]interface{}{"type": "number"},
//	            "b": map[string]interface{}{"type": "number"},
//	        },
//	        "required": []string{"a", "b"},
//	    },
//	    Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
//	        return fmt.Sprint(args["a"].(float64) + args["b"].(float64)), nil
//	    },
//	})
//
//	server.Run(ctx, os.Stdin, os.Stdout)
type Server struct {
	name    string
	version string

	tools map[string]*ServerTool

	mu sync.RWMutex
}

// NewServer 创建 MCP 服务器
func NewServer(name, version string) *Server {
	if version == "" {
		version = "1.0.0"
	}
	return &Server{
		name:    name,
		version: version,
		tools:   make(map[string]*ServerTool),
	}
}

// AddTool 添加工具
//
// 同名工具被覆盖。
func (s *Server) AddTool(tool ServerTool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[tool.Name] = &tool
}

// ToolNames 返回已公布的工具名
func (s *Server) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	return names
}

// Run 运行服务器（Stdio 模式）
//
// 从 reader 逐行读取请求，将响应写入 writer。
// reader 和 writer 为 nil 时使用 os.Stdin 和 os.Stdout。
func (s *Server) Run(ctx context.Context, reader io.Reader, writer io.Writer) error {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 单行最大 10MB

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil // EOF
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		response := s.Handle(ctx, line)
		if response != nil {
			if _, err := fmt.Fprintf(writer, "%s\n", response); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}

// Handle 处理单个 JSON-RPC 消息并返回编码后的响应
//
// 通知（无 ID 的请求）返回 nil。内存传输直接走这个入口。
func (s *Server) Handle(ctx context.Context, data []byte) []byte {
	response := s.handleRequest(ctx, data)
	if response == nil {
		return nil
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		return nil
	}
	return encoded
}

// handleRequest 处理单个请求
func (s *Server) handleRequest(ctx context.Context, data []byte) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return s.errorResponse(nil, -32700, "Parse error", err.Error())
	}

	// 通知没有 ID，不返回响应
	if req.ID == nil {
		return nil
	}

	return s.handleCall(ctx, &req)
}

// handleCall 处理调用
func (s *Server) handleCall(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case MethodInitialize:
		return s.handleInitialize(ctx, req)
	case MethodListTools:
		return s.handleListTools(ctx, req)
	case MethodCallTool:
		return s.handleCallTool(ctx, req)
	case MethodPing:
		return s.handlePing(ctx, req)
	default:
		return s.errorResponse(req.ID, -32601, "Method not found", req.Method)
	}
}

// handleInitialize 处理初始化请求
func (s *Server) handleInitialize(_ context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	result := InitializeResult{
		ProtocolVersion: MCPVersion,
		Capabilities: Capabilities{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ServerInfo: Implementation{
			Name:    s.name,
			Version: s.version,
		},
	}

	return s.successResponse(req.ID, result)
}

// handleListTools 处理列出工具请求
func (s *Server) handleListTools(_ context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]Tool, 0, len(s.tools))
	for _, t := range s.tools {
		schemaBytes, _ := json.Marshal(t.InputSchema)
		tools = append(tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaBytes,
		})
	}

	return s.successResponse(req.ID, ListToolsResult{Tools: tools})
}

// handleCallTool 处理调用工具请求
//
// 工具执行错误作为 isError 结果返回，不作为 RPC 错误，
// 客户端据此区分协议失败与工具失败。
func (s *Server) handleCallTool(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	s.mu.RLock()
	tool, ok := s.tools[params.Name]
	s.mu.RUnlock()

	if !ok {
		return s.errorResponse(req.ID, -32602, "Tool not found", params.Name)
	}

	result, err := tool.Handler(ctx, params.Arguments)
	if err != nil {
		return s.successResponse(req.ID, CallToolResult{
			Content: []Content{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
	}

	return s.successResponse(req.ID, CallToolResult{
		Content: []Content{{Type: "text", Text: result}},
		IsError: false,
	})
}

// handlePing 处理 ping 请求
func (s *Server) handlePing(_ context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	return s.successResponse(req.ID, map[string]interface{}{})
}

// successResponse 创建成功响应
func (s *Server) successResponse(id interface{}, result interface{}) *JSONRPCResponse {
	resultBytes, _ := json.Marshal(result)
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  resultBytes,
	}
}

// errorResponse 创建错误响应
func (s *Server) errorResponse(id interface{}, code int, message, data string) *JSONRPCResponse {
	var dataBytes json.RawMessage
	if data != "" {
		dataBytes, _ = json.Marshal(data)
	}

	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    dataBytes,
		},
	}
}
