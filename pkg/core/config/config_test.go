package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/easyops/tooluse-go/pkg/core/config"
)

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeTOML(t, `
[model]
client_type = "anthropic"
model = "claude-sonnet-4-5"
api_key = "sk-test"
max_tokens = 1024
temperature = 0.5
max_tool_rounds = 3

[model.servers]
calc = "http://localhost:8080/mcp"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	m := cfg.Model
	if m.ClientType != config.ClientAnthropic {
		t.Fatalf("expected anthropic, got %q", m.ClientType)
	}
	if m.Model != "claude-sonnet-4-5" {
		t.Fatalf("unexpected model: %q", m.Model)
	}
	if m.APIKey != "sk-test" {
		t.Fatalf("unexpected api key: %q", m.APIKey)
	}
	if m.MaxTokens != 1024 {
		t.Fatalf("expected 1024, got %d", m.MaxTokens)
	}
	if m.MaxToolRounds != 3 {
		t.Fatalf("expected 3 rounds, got %d", m.MaxToolRounds)
	}
	if m.Servers["calc"] != "http://localhost:8080/mcp" {
		t.Fatalf("unexpected servers: %v", m.Servers)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeTOML(t, `
[model]
client_type = "ollama"
model = "file-model"
`)
	t.Setenv("TOOLUSE_MODEL_MODEL", "env-model")
	t.Setenv("TOOLUSE_MODEL_HOST", "http://gpu-box:11434")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Model.Model != "env-model" {
		t.Fatalf("env must win over file, got %q", cfg.Model.Model)
	}
	if cfg.Model.Host != "http://gpu-box:11434" {
		t.Fatalf("unexpected host: %q", cfg.Model.Host)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Model.Timeout != 60*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Model.Timeout)
	}
	if cfg.Model.MaxToolRounds != 1 {
		t.Fatalf("expected default 1 round, got %d", cfg.Model.MaxToolRounds)
	}
}

func TestModelConfig_Validate(t *testing.T) {
	base := config.ModelConfig{
		ClientType: config.ClientAnthropic,
		Model:      "claude-sonnet-4-5",
		APIKey:     "sk-test",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*config.ModelConfig)
		want   error
	}{
		{"unknown client type", func(c *config.ModelConfig) { c.ClientType = "bard" }, config.ErrInvalidClientType},
		{"missing model", func(c *config.ModelConfig) { c.Model = "" }, config.ErrModelRequired},
		{"missing api key", func(c *config.ModelConfig) { c.APIKey = "" }, config.ErrAPIKeyRequired},
		{"temperature too high", func(c *config.ModelConfig) { c.Temperature = 2.5 }, config.ErrInvalidTemperature},
		{"negative timeout", func(c *config.ModelConfig) { c.Timeout = -time.Second }, config.ErrInvalidTimeout},
		{"negative rounds", func(c *config.ModelConfig) { c.MaxToolRounds = -1 }, config.ErrInvalidMaxToolRounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestModelConfig_Validate_OllamaNoKey(t *testing.T) {
	cfg := config.ModelConfig{
		ClientType: config.ClientOllama,
		Model:      "qwen3",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("ollama must not require an api key: %v", err)
	}
}

func TestModelConfig_WithDefaults(t *testing.T) {
	cfg := config.ModelConfig{ClientType: config.ClientOllama}.WithDefaults()

	if cfg.Timeout != 60*time.Second {
		t.Fatalf("expected 60s, got %v", cfg.Timeout)
	}

	// backend-required fields are never defaulted
	if cfg.Host != "" {
		t.Fatalf("host must stay empty, got %q", cfg.Host)
	}
	if cfg.MaxTokens != 0 {
		t.Fatalf("max tokens must stay zero, got %d", cfg.MaxTokens)
	}

	capped := config.ModelConfig{Timeout: time.Hour}.WithDefaults()
	if capped.Timeout != 5*time.Minute {
		t.Fatalf("expected timeout capped at 5m, got %v", capped.Timeout)
	}
}
