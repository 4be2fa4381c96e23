package mcp_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/protocols/mcp"
)

func newCalcServer() *mcp.Server {
	server := mcp.NewServer("calc-server", "1.0.0")

	server.AddTool(mcp.ServerTool{
		Name:        "add",
		Description: "Add two numbers",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"a": map[string]interface{}{"type": "number"},
				"b": map[string]interface{}{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			a, aok := args["a"].(float64)
			b, bok := args["b"].(float64)
			if !aok || !bok {
				return "", fmt.Errorf("a and b must be numbers")
			}
			return fmt.Sprint(a + b), nil
		},
	})

	server.AddTool(mcp.ServerTool{
		Name:        "fail",
		Description: "Always fails",
		InputSchema: map[string]interface{}{"type": "object"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return "", fmt.Errorf("intentional failure")
		},
	})

	return server
}

func newConnectedClient(t *testing.T) *mcp.Client {
	t.Helper()
	client := mcp.NewClient(mcp.NewMemoryTransport(newCalcServer()))
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return client
}

func TestClient_Initialize(t *testing.T) {
	client := newConnectedClient(t)

	info := client.ServerInfo()
	if info == nil {
		t.Fatal("expected server info after handshake")
	}
	if info.Name != "calc-server" {
		t.Fatalf("expected calc-server, got %q", info.Name)
	}

	// initialize is idempotent
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
}

func TestClient_ListTools(t *testing.T) {
	client := newConnectedClient(t)

	tools, err := client.ListTools(context.Background())
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}

	byName := map[string]mcp.ToolInfo{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	add, ok := byName["add"]
	if !ok {
		t.Fatal("expected add in tool list")
	}
	if add.Description != "Add two numbers" {
		t.Fatalf("unexpected description: %q", add.Description)
	}
	if add.InputSchema["type"] != "object" {
		t.Fatalf("expected object input schema, got %v", add.InputSchema["type"])
	}
}

func TestClient_CallTool(t *testing.T) {
	client := newConnectedClient(t)

	result, err := client.CallTool(context.Background(), "add",
		map[string]interface{}{"a": 2.0, "b": 3.0})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result != "5" {
		t.Fatalf("expected 5, got %q", result)
	}
}

func TestClient_CallTool_HandlerError(t *testing.T) {
	client := newConnectedClient(t)

	_, err := client.CallTool(context.Background(), "fail", nil)
	if !errors.Is(err, errors.ErrToolExecutionFailed) {
		t.Fatalf("expected ErrToolExecutionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "intentional failure") {
		t.Fatalf("expected handler detail in error, got %v", err)
	}
}

func TestClient_CallTool_UnknownTool(t *testing.T) {
	client := newConnectedClient(t)

	_, err := client.CallTool(context.Background(), "missing", nil)
	if !errors.Is(err, errors.ErrConnectionFailed) {
		t.Fatalf("expected protocol error classified as connection failure, got %v", err)
	}
}

func TestClient_Ping(t *testing.T) {
	client := newConnectedClient(t)

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestClient_ClosedTransport(t *testing.T) {
	transport := mcp.NewMemoryTransport(newCalcServer())
	client := mcp.NewClient(transport)
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestServer_ToolNames(t *testing.T) {
	server := newCalcServer()

	names := server.ToolNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
}

func TestServer_AddTool_Overwrite(t *testing.T) {
	server := newCalcServer()
	server.AddTool(mcp.ServerTool{
		Name:        "add",
		Description: "Replaced",
		InputSchema: map[string]interface{}{"type": "object"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			return "replaced", nil
		},
	})

	client := mcp.NewClient(mcp.NewMemoryTransport(server))
	result, err := client.CallTool(context.Background(), "add", nil)
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result != "replaced" {
		t.Fatalf("expected replacement handler to win, got %q", result)
	}
}
