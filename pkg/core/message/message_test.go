package message_test

import (
	"testing"

	"github.com/easyops/tooluse-go/pkg/core/message"
)

func TestRole_IsValid(t *testing.T) {
	for _, role := range []message.Role{
		message.RoleSystem, message.RoleUser, message.RoleAssistant, message.RoleTool,
	} {
		if !role.IsValid() {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if message.Role("narrator").IsValid() {
		t.Fatal("expected narrator to be invalid")
	}
}

func TestMessage_Text(t *testing.T) {
	msg := message.NewUserMessage("hello")
	if msg.Text() != "hello" {
		t.Fatalf("expected hello, got %q", msg.Text())
	}

	// structured content has no plain text form
	blocks := message.Message{
		Role:    message.RoleAssistant,
		Content: []interface{}{map[string]interface{}{"type": "text", "text": "hi"}},
	}
	if blocks.Text() != "" {
		t.Fatalf("expected empty text for block content, got %q", blocks.Text())
	}
}

func TestMessage_Validate(t *testing.T) {
	msg := message.NewAssistantMessage("ok")
	if err := msg.Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}

	bad := message.Message{Role: "narrator", Content: "x"}
	if err := bad.Validate(); err != message.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	empty := message.Message{Role: message.RoleUser}
	if err := empty.Validate(); err != message.ErrEmptyContent {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	// assistant tool-call messages may omit text content
	calls := message.Message{
		Role:      message.RoleAssistant,
		ToolCalls: []message.ToolCall{{Name: "add"}},
	}
	if err := calls.Validate(); err != nil {
		t.Fatalf("tool-call message rejected: %v", err)
	}
	if !calls.HasToolCalls() {
		t.Fatal("expected HasToolCalls")
	}
}

func TestTokenUsage_Add(t *testing.T) {
	var usage message.TokenUsage
	if !usage.IsEmpty() {
		t.Fatal("zero usage must be empty")
	}

	usage.Add(message.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	usage.Add(message.TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})

	if usage.PromptTokens != 11 || usage.CompletionTokens != 7 || usage.TotalTokens != 18 {
		t.Fatalf("unexpected totals: %+v", usage)
	}
	if usage.IsEmpty() {
		t.Fatal("accumulated usage must not be empty")
	}
}
