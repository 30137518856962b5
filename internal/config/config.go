// Package config loads the tool configuration from an optional YAML file
// and KNYHOTRAN_* environment variables into one explicit struct. The
// struct is constructed once and handed to the components that need it;
// nothing reads the environment after Load returns.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is everything a run needs, resolved up front.
type Config struct {
	// Provider selects the translation backend: openai, gemini, ollama,
	// google.
	Provider string `mapstructure:"provider"`

	// Pipeline tuning.
	ChunkLines int           `mapstructure:"chunk_lines"`
	FloorChars int           `mapstructure:"floor_chars"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	Workers    int           `mapstructure:"workers"`
	RateLimit  float64       `mapstructure:"rate_limit"`

	// Prompting and language pair.
	SystemPrompt string `mapstructure:"system_prompt"`
	SourceLang   string `mapstructure:"source_lang"`
	TargetLang   string `mapstructure:"target_lang"`

	// Provider credentials and endpoints.
	OpenAIKey         string `mapstructure:"openai_key"`
	OpenAIBaseURL     string `mapstructure:"openai_base_url"`
	OpenAIModel       string `mapstructure:"openai_model"`
	GeminiKey         string `mapstructure:"gemini_key"`
	GeminiBaseURL     string `mapstructure:"gemini_base_url"`
	GeminiModel       string `mapstructure:"gemini_model"`
	OllamaURL         string `mapstructure:"ollama_url"`
	OllamaModel       string `mapstructure:"ollama_model"`
	GoogleCredentials string `mapstructure:"google_credentials"`

	// Directories and persistence.
	TemplateDir string `mapstructure:"template_dir"`
	OutputDir   string `mapstructure:"output_dir"`
	DebugDir    string `mapstructure:"debug_dir"`
	DBPath      string `mapstructure:"db_path"`
	NoCache     bool   `mapstructure:"no_cache"`
}

// Load reads the config file at path (optional; empty looks for
// knyhotran.yaml in the working directory) merged with environment
// overrides, and applies defaults.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("provider", "openai")
	v.SetDefault("chunk_lines", 100)
	v.SetDefault("floor_chars", 500)
	v.SetDefault("max_retries", 5)
	v.SetDefault("retry_delay", 5*time.Second)
	v.SetDefault("workers", 4)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("system_prompt", "You are a professional literary translator. Translate the following text, preserving its line structure. Only respond with the translation, nothing else.")
	v.SetDefault("source_lang", "auto")
	v.SetDefault("target_lang", "en")
	v.SetDefault("template_dir", "templates")
	v.SetDefault("output_dir", ".")
	v.SetDefault("debug_dir", "debug")
	v.SetDefault("db_path", "./data/knyhotran.db")
	v.SetDefault("no_cache", false)

	// Credential and endpoint keys default to empty so environment-only
	// values survive Unmarshal.
	for _, key := range []string{
		"openai_key", "openai_base_url", "openai_model",
		"gemini_key", "gemini_base_url", "gemini_model",
		"ollama_url", "ollama_model", "google_credentials",
	} {
		v.SetDefault(key, "")
	}

	v.SetEnvPrefix("KNYHOTRAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("knyhotran")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate fails fast on configuration the selected provider cannot run
// with. It runs before any provider call.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("openai provider requires openai_key (KNYHOTRAN_OPENAI_KEY)")
		}
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("gemini provider requires gemini_key (KNYHOTRAN_GEMINI_KEY)")
		}
	case "ollama":
		// Local instance; reachability is checked at runtime.
	case "google":
		if c.TargetLang == "" {
			return fmt.Errorf("google provider requires target_lang")
		}
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}

	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	if c.FloorChars < 1 {
		return fmt.Errorf("floor_chars must be at least 1")
	}
	return nil
}
