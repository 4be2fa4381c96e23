package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/easyops/tooluse-go/pkg/adapter"
	"github.com/easyops/tooluse-go/pkg/builtin"
	"github.com/easyops/tooluse-go/pkg/client"
	"github.com/easyops/tooluse-go/pkg/core/config"
	"github.com/easyops/tooluse-go/pkg/core/errors"
	"github.com/easyops/tooluse-go/pkg/core/message"
	"github.com/easyops/tooluse-go/pkg/tools"
)

// fakeBackend replays scripted responses and records every request
type fakeBackend struct {
	script   []*adapter.Response
	sent     [][]message.Message
	sentTool [][]map[string]interface{}
}

func (f *fakeBackend) Send(ctx context.Context, msgs []message.Message, wireTools []map[string]interface{}) (*adapter.Response, error) {
	f.sent = append(f.sent, append([]message.Message(nil), msgs...))
	f.sentTool = append(f.sentTool, wireTools)

	if len(f.script) == 0 {
		return nil, fmt.Errorf("fake backend script exhausted")
	}
	resp := f.script[0]
	f.script = f.script[1:]
	return resp, nil
}

func (f *fakeBackend) Close() error { return nil }

func textResp(text string) *adapter.Response {
	raw, _ := json.Marshal(map[string]interface{}{
		"message": map[string]interface{}{"role": "assistant", "content": text},
	})
	return &adapter.Response{
		Raw:   raw,
		Usage: message.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func toolCallResp(name string, args map[string]interface{}) *adapter.Response {
	raw, _ := json.Marshal(map[string]interface{}{
		"message": map[string]interface{}{
			"role":    "assistant",
			"content": "",
			"tool_calls": []map[string]interface{}{
				{"function": map[string]interface{}{"name": name, "arguments": args}},
			},
		},
	})
	return &adapter.Response{
		Raw:   raw,
		Usage: message.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func newTestClient(t *testing.T, cfg config.ModelConfig, backend client.Backend) *client.LLMClient {
	t.Helper()
	if cfg.ClientType == "" {
		cfg.ClientType = config.ClientOllama
	}
	if cfg.Model == "" {
		cfg.Model = "test-model"
	}
	c, err := client.New(cfg, client.WithBackend(backend))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func calcCollection(t *testing.T) *tools.ToolCollection {
	t.Helper()
	registry := tools.NewRegistry()
	if _, err := builtin.RegisterCalculator(context.Background(), registry); err != nil {
		t.Fatalf("register calculator: %v", err)
	}
	c, err := tools.AllTools(registry)
	if err != nil {
		t.Fatalf("all tools: %v", err)
	}
	return c
}

func userMsgs(text string) []message.Message {
	return []message.Message{message.NewUserMessage(text)}
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := client.New(config.ModelConfig{
		ClientType: config.ClientAnthropic,
		Model:      "claude-sonnet-4-5",
	})
	if !errors.Is(err, errors.ErrBackendConfig) {
		t.Fatalf("expected ErrBackendConfig, got %v", err)
	}
}

func TestNew_UnknownClientType(t *testing.T) {
	_, err := client.New(config.ModelConfig{ClientType: "bard", Model: "m"})
	if !errors.Is(err, errors.ErrBackendConfig) {
		t.Fatalf("expected ErrBackendConfig, got %v", err)
	}
}

func TestNew_AnthropicRequiresMaxTokens(t *testing.T) {
	_, err := client.New(config.ModelConfig{
		ClientType: config.ClientAnthropic,
		Model:      "claude-sonnet-4-5",
		APIKey:     "sk-test",
	})
	if !errors.Is(err, errors.ErrBackendConfig) {
		t.Fatalf("expected ErrBackendConfig for missing max_tokens, got %v", err)
	}
}

func TestNew_OllamaRequiresHost(t *testing.T) {
	_, err := client.New(config.ModelConfig{
		ClientType: config.ClientOllama,
		Model:      "qwen3",
	})
	if !errors.Is(err, errors.ErrBackendConfig) {
		t.Fatalf("expected ErrBackendConfig for missing host, got %v", err)
	}
}

func TestCall_TextOnly(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{textResp("hello")}}
	c := newTestClient(t, config.ModelConfig{}, backend)

	turn, err := c.Call(context.Background(), userMsgs("hi"), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if turn.Text != "hello" {
		t.Fatalf("expected hello, got %q", turn.Text)
	}
	if turn.Rounds != 0 {
		t.Fatalf("expected 0 tool rounds, got %d", turn.Rounds)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected exactly 1 request, got %d", len(backend.sent))
	}
	if turn.Usage.TotalTokens != 15 {
		t.Fatalf("expected usage accumulated, got %+v", turn.Usage)
	}
	if len(turn.Messages) != 2 {
		t.Fatalf("expected user + assistant history, got %d messages", len(turn.Messages))
	}
}

func TestCall_SingleToolRound(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{
		toolCallResp("add", map[string]interface{}{"a": 2.0, "b": 3.0}),
		textResp("The answer is 5."),
	}}
	c := newTestClient(t, config.ModelConfig{}, backend)

	turn, err := c.Call(context.Background(), userMsgs("what is 2+3"), calcCollection(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(backend.sent) != 2 {
		t.Fatalf("expected exactly 2 requests, got %d", len(backend.sent))
	}
	if turn.Rounds != 1 {
		t.Fatalf("expected 1 tool round, got %d", turn.Rounds)
	}
	if turn.Text != "The answer is 5." {
		t.Fatalf("unexpected final text: %q", turn.Text)
	}

	// second request carries the tool result
	second := backend.sent[1]
	last := second[len(second)-1]
	if last.Role != message.RoleTool {
		t.Fatalf("expected tool message appended, got role %s", last.Role)
	}
	if last.Text() != "5" {
		t.Fatalf("expected tool result 5, got %q", last.Text())
	}

	if turn.Usage.TotalTokens != 30 {
		t.Fatalf("expected usage summed over rounds, got %+v", turn.Usage)
	}
}

func TestCall_RecoverableToolErrorContinues(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{
		toolCallResp("divide", map[string]interface{}{"a": 1.0, "b": 0.0}),
		textResp("Cannot divide by zero."),
	}}
	c := newTestClient(t, config.ModelConfig{}, backend)

	turn, err := c.Call(context.Background(), userMsgs("1/0?"), calcCollection(t))
	if err != nil {
		t.Fatalf("recoverable tool error must not abort the turn, got %v", err)
	}

	if len(backend.sent) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(backend.sent))
	}
	second := backend.sent[1]
	last := second[len(second)-1]
	if !strings.HasPrefix(last.Text(), "Error:") {
		t.Fatalf("expected stringified error fed back, got %q", last.Text())
	}
	if turn.Text != "Cannot divide by zero." {
		t.Fatalf("unexpected final text: %q", turn.Text)
	}
}

func TestCall_UnavailableToolSkipped(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{
		toolCallResp("ghost", map[string]interface{}{}),
		textResp("Sorry."),
	}}
	c := newTestClient(t, config.ModelConfig{}, backend)

	turn, err := c.Call(context.Background(), userMsgs("use ghost"), calcCollection(t))
	if err != nil {
		t.Fatalf("unavailable tool must not abort the turn, got %v", err)
	}

	// the skipped call contributes no response message, the
	// history gap is visible in the second request
	if len(backend.sent) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(backend.sent))
	}
	second := backend.sent[1]
	if len(second) != len(backend.sent[0])+1 {
		t.Fatalf("expected only the assistant turn appended, got %d messages", len(second))
	}
	last := second[len(second)-1]
	if last.Role != message.RoleAssistant {
		t.Fatalf("expected assistant message last, got role %s", last.Role)
	}
	if turn.Text != "Sorry." {
		t.Fatalf("unexpected final text: %q", turn.Text)
	}
}

func TestCall_AllowedToolsUnknownName(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{textResp("never")}}
	c := newTestClient(t, config.ModelConfig{AllowedTools: []string{"add", "ghost"}}, backend)

	_, err := c.Call(context.Background(), userMsgs("hi"), calcCollection(t))
	if !errors.Is(err, errors.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool for unknown allow-listed name, got %v", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected the missing name listed, got %v", err)
	}
	if len(backend.sent) != 0 {
		t.Fatalf("no request must be sent, got %d", len(backend.sent))
	}
}

func TestCall_MaxToolRoundsBounds(t *testing.T) {
	// the model keeps asking for tools, the loop must stop anyway
	backend := &fakeBackend{script: []*adapter.Response{
		toolCallResp("add", map[string]interface{}{"a": 1.0, "b": 1.0}),
		toolCallResp("add", map[string]interface{}{"a": 2.0, "b": 2.0}),
		toolCallResp("add", map[string]interface{}{"a": 3.0, "b": 3.0}),
	}}
	c := newTestClient(t, config.ModelConfig{MaxToolRounds: 2}, backend)

	turn, err := c.Call(context.Background(), userMsgs("loop"), calcCollection(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(backend.sent) != 3 {
		t.Fatalf("expected 3 requests for 2 tool rounds, got %d", len(backend.sent))
	}
	if turn.Rounds != 2 {
		t.Fatalf("expected 2 rounds, got %d", turn.Rounds)
	}
}

func TestCall_DefaultSingleRound(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{
		toolCallResp("add", map[string]interface{}{"a": 1.0, "b": 1.0}),
		toolCallResp("add", map[string]interface{}{"a": 2.0, "b": 2.0}),
	}}
	c := newTestClient(t, config.ModelConfig{}, backend)

	turn, err := c.Call(context.Background(), userMsgs("loop"), calcCollection(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(backend.sent) != 2 || turn.Rounds != 1 {
		t.Fatalf("default is a single tool round, got %d requests and %d rounds",
			len(backend.sent), turn.Rounds)
	}
}

func TestCall_AllowedToolsFilterWireTools(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{textResp("done")}}
	c := newTestClient(t, config.ModelConfig{AllowedTools: []string{"add"}}, backend)

	if _, err := c.Call(context.Background(), userMsgs("hi"), calcCollection(t)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	wire := backend.sentTool[0]
	if len(wire) != 1 {
		t.Fatalf("expected 1 allowed tool on the wire, got %d", len(wire))
	}
	fn := wire[0]["function"].(map[string]interface{})
	if fn["name"] != "add" {
		t.Fatalf("expected add, got %v", fn["name"])
	}
}

func TestCall_VanishedToolAborts(t *testing.T) {
	registry := tools.NewRegistry()
	ctx := context.Background()
	if _, err := builtin.RegisterCalculator(ctx, registry); err != nil {
		t.Fatalf("register calculator: %v", err)
	}
	collection, err := tools.AllTools(registry)
	if err != nil {
		t.Fatalf("all tools: %v", err)
	}
	// tool vanishes between collection construction and the call
	_ = registry.Unregister("add")

	backend := &fakeBackend{script: []*adapter.Response{
		toolCallResp("add", map[string]interface{}{"a": 1.0, "b": 1.0}),
		textResp("never reached"),
	}}
	c := newTestClient(t, config.ModelConfig{}, backend)

	_, err = c.Call(ctx, userMsgs("add"), collection)
	if !errors.Is(err, errors.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool to abort the turn, got %v", err)
	}
}

func TestCompletion(t *testing.T) {
	backend := &fakeBackend{script: []*adapter.Response{textResp("pong")}}
	c := newTestClient(t, config.ModelConfig{}, backend)

	text, err := c.Completion(context.Background(), "ping")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "pong" {
		t.Fatalf("expected pong, got %q", text)
	}
	if backend.sentTool[0] != nil {
		t.Fatal("completion must not offer tools")
	}
}
