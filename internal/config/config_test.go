package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envBindings {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
	t.Setenv("DOCNOTES_MODEL_PROVIDER", "")
}

func TestLoadDefaultsFromEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NOTION_API_TOKEN", "secret_notion")
	t.Setenv("NOTION_PAGE_ID", "page-123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Model.Provider != ProviderOpenAI || cfg.Model.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model defaults: %+v", cfg.Model)
	}
	if cfg.Model.APIKey != "sk-test" {
		t.Fatalf("api key not read from env, got %q", cfg.Model.APIKey)
	}
	if cfg.Notes.Token != "secret_notion" || cfg.Notes.ParentPageID != "page-123" {
		t.Fatalf("notes settings not read from env: %+v", cfg.Notes)
	}
	if cfg.BasicConfig.RequestTimeout != 2*time.Minute {
		t.Fatalf("unexpected request timeout %s", cfg.BasicConfig.RequestTimeout)
	}
	if cfg.Worker.HandshakeTimeout != 30*time.Second {
		t.Fatalf("unexpected handshake timeout %s", cfg.Worker.HandshakeTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.Source() != "" {
		t.Fatalf("expected empty source, got %q", cfg.Source())
	}
}

func TestLoadFileResolvesRelativeDirs(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"basic_config": {"server_address": ":9000", "upload_dir": "data/uploads", "request_timeout": "45s"},
		"model": {"provider": "Claude", "model": "claude-3-5-haiku-latest", "api_key": "file-key"},
		"notes": {"token": "t", "parent_page_id": "p"},
		"worker": {"tool_timeout": "5s"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":9000" {
		t.Fatalf("server address = %q", cfg.BasicConfig.ServerAddress)
	}
	if want := filepath.Join(dir, "data/uploads"); cfg.BasicConfig.UploadDir != want {
		t.Fatalf("upload dir = %q, want %q", cfg.BasicConfig.UploadDir, want)
	}
	if cfg.BasicConfig.RequestTimeout != 45*time.Second {
		t.Fatalf("request timeout = %s", cfg.BasicConfig.RequestTimeout)
	}
	if cfg.Model.Provider != ProviderClaude {
		t.Fatalf("provider should be normalised, got %q", cfg.Model.Provider)
	}
	if cfg.Worker.ToolTimeout != 5*time.Second {
		t.Fatalf("tool timeout = %s", cfg.Worker.ToolTimeout)
	}
	if cfg.Source() != path {
		t.Fatalf("source = %q, want %q", cfg.Source(), path)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Model.APIKey != "env-key" {
		t.Fatalf("env should override file, got %q", cfg.Model.APIKey)
	}
}

func TestValidateReportsMissingSettings(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	var cfgErr *Error
	if !errors.As(err, &cfgErr) || len(cfgErr.Problems) != 3 {
		t.Fatalf("expected three problems, got %#v", err)
	}
	for _, want := range []string{"OPENAI_API_KEY", "NOTION_API_TOKEN", "NOTION_PAGE_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err.Error(), want)
		}
	}

	if err := cfg.ValidateWorker(); err == nil {
		t.Fatalf("worker validation should fail without notes settings")
	}
	cfg.Notes = NotesConfig{Token: "t", ParentPageID: "p"}
	if err := cfg.ValidateWorker(); err != nil {
		t.Fatalf("worker validation should not need model settings: %v", err)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("NOTION_API_TOKEN", "t")
	t.Setenv("NOTION_PAGE_ID", "p")
	t.Setenv("DOCNOTES_MODEL_PROVIDER", "mystery")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "mystery") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}
