package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Orchestrator.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Orchestrator.MaxRetries)
	}
	if cfg.Orchestrator.ResponderTimeout != 10*time.Second {
		t.Errorf("expected default responder timeout 10s, got %v", cfg.Orchestrator.ResponderTimeout)
	}
	if cfg.Orchestrator.ContextWindow != 5 {
		t.Errorf("expected default context window 5, got %d", cfg.Orchestrator.ContextWindow)
	}
	if cfg.Orchestrator.FallbackMessage != DefaultFallbackMessage {
		t.Errorf("expected default fallback message, got %q", cfg.Orchestrator.FallbackMessage)
	}
	if cfg.Orchestrator.RetryPromptMessage != DefaultRetryPromptMessage {
		t.Errorf("expected default retry prompt, got %q", cfg.Orchestrator.RetryPromptMessage)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("expected default storage sqlite, got %q", cfg.Storage.Type)
	}
	if cfg.Router.ConfidenceThreshold != 1 {
		t.Errorf("expected default confidence threshold 1, got %d", cfg.Router.ConfidenceThreshold)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  request_timeout: 15s
storage:
  type: memory
orchestrator:
  max_retries: 2
  context_window: 8
  fallback_message: "Let's try something different."
router:
  confidence_threshold: 2
  academic_keywords:
    - dinosaurs
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("expected request timeout 15s, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("expected memory storage, got %q", cfg.Storage.Type)
	}
	if cfg.Orchestrator.MaxRetries != 2 {
		t.Errorf("expected max retries 2, got %d", cfg.Orchestrator.MaxRetries)
	}
	if cfg.Orchestrator.ContextWindow != 8 {
		t.Errorf("expected context window 8, got %d", cfg.Orchestrator.ContextWindow)
	}
	if cfg.Router.ConfidenceThreshold != 2 {
		t.Errorf("expected threshold 2, got %d", cfg.Router.ConfidenceThreshold)
	}
	if len(cfg.Router.AcademicKeywords) != 1 || cfg.Router.AcademicKeywords[0] != "dinosaurs" {
		t.Errorf("expected academic keywords, got %v", cfg.Router.AcademicKeywords)
	}
	// Unset keys keep their defaults.
	if cfg.Orchestrator.ReviewerTimeout != 5*time.Second {
		t.Errorf("expected default reviewer timeout, got %v", cfg.Orchestrator.ReviewerTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COMPANIOND_SERVER__PORT", "7070")
	t.Setenv("COMPANIOND_ORCHESTRATOR__MAX_RETRIES", "5")
	t.Setenv("COMPANIOND_STORAGE__TYPE", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Orchestrator.MaxRetries != 5 {
		t.Errorf("expected env max retries 5, got %d", cfg.Orchestrator.MaxRetries)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("expected env storage memory, got %q", cfg.Storage.Type)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("COMPANIOND_SERVER__PORT", "6060")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("env should override file, got %d", cfg.Server.Port)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero retries", "orchestrator:\n  max_retries: 0\n"},
		{"negative window", "orchestrator:\n  context_window: -1\n"},
		{"empty fallback", "orchestrator:\n  fallback_message: \"\"\n"},
		{"bad storage", "storage:\n  type: postgres\n"},
		{"remote without url", "responder:\n  remote:\n    enabled: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
