// Package config loads service configuration from an optional YAML file with
// environment variable overrides (COMPANIOND_ prefix, __ as the key separator).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Storage      StorageConfig      `koanf:"storage"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Router       RouterConfig       `koanf:"router"`
	Responder    ResponderConfig    `koanf:"responder"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// OrchestratorConfig is the configuration surface the turn-processing core
// consumes.
type OrchestratorConfig struct {
	// MaxRetries caps total generation attempts per turn (default 3).
	MaxRetries       int           `koanf:"max_retries"`
	ResponderTimeout time.Duration `koanf:"responder_timeout"`
	ReviewerTimeout  time.Duration `koanf:"reviewer_timeout"`

	// ContextWindow bounds how many prior exchanges responders see.
	ContextWindow int `koanf:"context_window"`
	// ContextTokenBudget further trims the window by token count; 0 disables.
	ContextTokenBudget int `koanf:"context_token_budget"`

	// FallbackMessage is the statically configured, pre-approved text served
	// when retries are exhausted. Never responder-generated, never re-reviewed.
	FallbackMessage string `koanf:"fallback_message"`
	// RetryPromptMessage is served when input is empty or unusable.
	RetryPromptMessage string `koanf:"retry_prompt_message"`
}

type RouterConfig struct {
	// ConfidenceThreshold is the minimum keyword score required before an
	// intent is trusted; below it the turn routes to the fallback intent.
	ConfidenceThreshold int `koanf:"confidence_threshold"`

	// Extra keywords merged into the built-in intent vocabularies.
	AcademicKeywords  []string `koanf:"academic_keywords"`
	EmotionalKeywords []string `koanf:"emotional_keywords"`
}

type ResponderConfig struct {
	Remote RemoteResponderConfig `koanf:"remote"`
}

// RemoteResponderConfig points the academic/emotional intents at an HTTP
// model-serving endpoint instead of the built-in canned responders.
type RemoteResponderConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// Default user-visible texts. Both are pre-approved copy: they are served
// verbatim and never pass through a responder or reviewer.
const (
	DefaultFallbackMessage    = "I can't help with that one, but I'd love to talk about something else. What would you like to chat about?"
	DefaultRetryPromptMessage = "I didn't catch that. Could you say it again?"
)

const envPrefix = "COMPANIOND_"

// Load reads configuration from path (missing file is fine) and applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars and defaults.
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	applyDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.port":                       8080,
		"server.request_timeout":            "30s",
		"storage.type":                      "sqlite",
		"storage.sqlite.path":               "./data/companiond.db",
		"orchestrator.max_retries":          3,
		"orchestrator.responder_timeout":    "10s",
		"orchestrator.reviewer_timeout":     "5s",
		"orchestrator.context_window":       5,
		"orchestrator.context_token_budget": 0,
		"orchestrator.fallback_message":     DefaultFallbackMessage,
		"orchestrator.retry_prompt_message": DefaultRetryPromptMessage,
		"router.confidence_threshold":       1,
		"responder.remote.timeout":          "10s",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}
}

func (c *Config) validate() error {
	if c.Orchestrator.MaxRetries < 1 {
		return fmt.Errorf("orchestrator.max_retries must be >= 1, got %d", c.Orchestrator.MaxRetries)
	}
	if c.Orchestrator.ContextWindow < 0 {
		return fmt.Errorf("orchestrator.context_window must be >= 0, got %d", c.Orchestrator.ContextWindow)
	}
	if c.Orchestrator.FallbackMessage == "" {
		return fmt.Errorf("orchestrator.fallback_message must not be empty")
	}
	switch c.Storage.Type {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported storage.type %q (want sqlite or memory)", c.Storage.Type)
	}
	if c.Responder.Remote.Enabled && c.Responder.Remote.BaseURL == "" {
		return fmt.Errorf("responder.remote.base_url required when remote responder is enabled")
	}
	return nil
}
