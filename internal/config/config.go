// Package config loads the soloquest.yaml project file plus environment
// overrides. A .env file next to the config is honored when present, so API
// keys stay out of the YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrLLMNotConfigured marks a config whose llm section is missing the fields
// needed to reach a model. Commands that never call the model ignore it.
var ErrLLMNotConfigured = errors.New("llm is not configured (set llm.base_url and llm.model)")

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Memory   MemoryConfig   `yaml:"memory"`

	// Language selects the DM prompt language, "en" or "zh".
	Language string `yaml:"language"`
}

type DatabaseConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type MemoryConfig struct {
	// HistoryTurns is how many recent full turns enter the prompt verbatim.
	HistoryTurns int `yaml:"history_turns_for_prompt"`
	// JournalEntries is how many story journal lines enter the prompt.
	JournalEntries int `yaml:"story_journal_for_prompt"`
}

// Load reads the config file, applies a sibling .env if one exists, then
// environment overrides (SOLOQUEST_API_KEY, SOLOQUEST_DSN), then defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Missing .env is fine; a broken one is not.
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, statErr := os.Stat(envPath); statErr == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if key := os.Getenv("SOLOQUEST_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if dsn := os.Getenv("SOLOQUEST_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration written by `soloquest init`.
func Default() *Config {
	cfg := &Config{
		Database: DatabaseConfig{Backend: "sqlite", DSN: "sqlite://soloquest.db"},
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "http://localhost:11434/v1",
			Model:    "llama3.1",
		},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Backend == "" {
		cfg.Database.Backend = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Backend == "sqlite" {
		cfg.Database.DSN = "sqlite://soloquest.db"
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = 120
	}
	if cfg.Memory.HistoryTurns <= 0 {
		cfg.Memory.HistoryTurns = 6
	}
	if cfg.Memory.JournalEntries <= 0 {
		cfg.Memory.JournalEntries = 12
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
}

func validate(cfg *Config) error {
	switch cfg.Database.Backend {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database backend: %s", cfg.Database.Backend)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	switch cfg.Language {
	case "en", "zh":
	default:
		return fmt.Errorf("unsupported language: %s", cfg.Language)
	}
	return nil
}

// CheckLLM reports whether the config can reach a model. Called by commands
// that are about to run a turn, not by Load, so storage-only commands work on
// a half-configured project.
func (c *Config) CheckLLM() error {
	if strings.TrimSpace(c.LLM.BaseURL) == "" || strings.TrimSpace(c.LLM.Model) == "" {
		return ErrLLMNotConfigured
	}
	return nil
}

// Write serializes the config to path, creating parent directories.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
