package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valpere/knyhotran/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.ChunkLines != 100 {
		t.Errorf("ChunkLines = %d", cfg.ChunkLines)
	}
	if cfg.FloorChars != 500 {
		t.Errorf("FloorChars = %d", cfg.FloorChars)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 5*time.Second {
		t.Errorf("RetryDelay = %s", cfg.RetryDelay)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.TargetLang != "en" {
		t.Errorf("TargetLang = %q", cfg.TargetLang)
	}
	if cfg.SystemPrompt == "" {
		t.Error("SystemPrompt should have a default")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knyhotran.yaml")
	content := strings.Join([]string{
		"provider: ollama",
		"chunk_lines: 50",
		"retry_delay: 2s",
		"target_lang: uk",
		"ollama_model: mistral",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "ollama" || cfg.ChunkLines != 50 || cfg.TargetLang != "uk" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %s", cfg.RetryDelay)
	}
	if cfg.OllamaModel != "mistral" {
		t.Errorf("OllamaModel = %q", cfg.OllamaModel)
	}
	// Untouched keys keep their defaults.
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("explicitly named missing file should fail")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KNYHOTRAN_PROVIDER", "gemini")
	t.Setenv("KNYHOTRAN_GEMINI_KEY", "env-key")
	t.Setenv("KNYHOTRAN_WORKERS", "8")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.GeminiKey != "env-key" {
		t.Errorf("GeminiKey = %q", cfg.GeminiKey)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		cfg, err := config.Load("")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	t.Run("openai requires key", func(t *testing.T) {
		cfg := base()
		cfg.Provider = "openai"
		cfg.OpenAIKey = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error")
		}
		cfg.OpenAIKey = "sk-test"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("gemini requires key", func(t *testing.T) {
		cfg := base()
		cfg.Provider = "gemini"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("ollama needs no credentials", func(t *testing.T) {
		cfg := base()
		cfg.Provider = "ollama"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := base()
		cfg.Provider = "babelfish"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bounds", func(t *testing.T) {
		cfg := base()
		cfg.Provider = "ollama"
		cfg.MaxRetries = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero retries")
		}

		cfg = base()
		cfg.Provider = "ollama"
		cfg.FloorChars = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero floor")
		}
	})
}
