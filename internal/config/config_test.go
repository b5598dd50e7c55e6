package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("valid config loads with defaults", func(t *testing.T) {
		path := writeTempConfig(t, "database:\n  backend: sqlite\n  dsn: sqlite://game.db\nllm:\n  base_url: http://localhost:11434/v1\n  model: llama3.1\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.DSN != "sqlite://game.db" {
			t.Fatalf("unexpected dsn: %q", cfg.Database.DSN)
		}
		if cfg.Memory.HistoryTurns != 6 || cfg.Memory.JournalEntries != 12 {
			t.Fatalf("memory defaults not applied: %+v", cfg.Memory)
		}
		if cfg.Language != "en" {
			t.Fatalf("language default not applied: %q", cfg.Language)
		}
		if cfg.LLM.TimeoutSeconds != 120 {
			t.Fatalf("timeout default not applied: %d", cfg.LLM.TimeoutSeconds)
		}
	})

	t.Run("empty config gets sqlite defaults", func(t *testing.T) {
		path := writeTempConfig(t, "{}\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.Backend != "sqlite" || cfg.Database.DSN == "" {
			t.Fatalf("sqlite defaults not applied: %+v", cfg.Database)
		}
	})

	t.Run("unsupported backend", func(t *testing.T) {
		path := writeTempConfig(t, "database:\n  backend: mongodb\n  dsn: mongodb://x\n")
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		path := writeTempConfig(t, "database:\n  backend: postgres\n")
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unsupported language", func(t *testing.T) {
		path := writeTempConfig(t, "language: fr\n")
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("SOLOQUEST_API_KEY", "sk-from-env")
		t.Setenv("SOLOQUEST_DSN", "postgres://env/db")
		path := writeTempConfig(t, "database:\n  backend: postgres\n  dsn: postgres://file/db\nllm:\n  api_key: sk-from-file\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.LLM.APIKey != "sk-from-env" {
			t.Fatalf("api key override not applied: %q", cfg.LLM.APIKey)
		}
		if cfg.Database.DSN != "postgres://env/db" {
			t.Fatalf("dsn override not applied: %q", cfg.Database.DSN)
		}
	})

	t.Run("dotenv file next to config", func(t *testing.T) {
		t.Setenv("SOLOQUEST_API_KEY", "")
		os.Unsetenv("SOLOQUEST_API_KEY")
		dir := t.TempDir()
		path := filepath.Join(dir, "soloquest.yaml")
		if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SOLOQUEST_API_KEY=sk-dotenv\n"), 0o600); err != nil {
			t.Fatalf("writing .env: %v", err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.LLM.APIKey != "sk-dotenv" {
			t.Fatalf("dotenv key not applied: %q", cfg.LLM.APIKey)
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "database: [\n")
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestCheckLLM(t *testing.T) {
	cfg := Default()
	if err := cfg.CheckLLM(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	cfg.LLM.Model = ""
	if err := cfg.CheckLLM(); !errors.Is(err, ErrLLMNotConfigured) {
		t.Fatalf("expected ErrLLMNotConfigured, got %v", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "soloquest.yaml")
	cfg := Default()
	cfg.LLM.Model = "qwen2.5"
	if err := cfg.Write(path); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if loaded.LLM.Model != "qwen2.5" {
		t.Fatalf("round trip lost model: %q", loaded.LLM.Model)
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soloquest.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
