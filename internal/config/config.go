package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Claude
	AnthropicAPIKey string
	AnthropicModel  string

	// Persona
	PersonaPath       string
	SummaryCachePath  string
	ProfileDir        string
	PromptTokenBudget int

	// Sessions
	HistoryWindow int
	SessionTTL    time.Duration

	// Upload limits
	MaxUploadBytes int64

	// PDF
	PDFFallbackPdftotext bool
}

// fileConfig is the optional YAML file shape; every field maps to one env
// var and env always wins.
type fileConfig struct {
	Port              string `yaml:"port"`
	PersonaPath       string `yaml:"persona_path"`
	SummaryCachePath  string `yaml:"summary_cache_path"`
	ProfileDir        string `yaml:"profile_dir"`
	AnthropicModel    string `yaml:"anthropic_model"`
	HistoryWindow     int    `yaml:"history_window"`
	SessionTTL        string `yaml:"session_ttl"`
	MaxUploadBytes    int64  `yaml:"max_upload_bytes"`
	PromptTokenBudget int    `yaml:"prompt_token_budget"`
}

// Load builds configuration from the optional YAML file named by
// PERSONAD_CONFIG, overridden by environment variables.
func Load() Config {
	var fc fileConfig
	if path := os.Getenv("PERSONAD_CONFIG"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// A broken config file is ignored rather than fatal; env and
			// defaults still produce a runnable service.
			_ = yaml.Unmarshal(data, &fc)
		}
	}

	cfg := Config{
		Port: envOr("PORT", or(fc.Port, "8000")),

		APIKey: os.Getenv("PERSONAD_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", or(fc.AnthropicModel, "claude-sonnet-4-5-20250929")),

		PersonaPath:       envOr("PERSONA_PATH", or(fc.PersonaPath, "persona_questionnaire.md")),
		SummaryCachePath:  envOr("SUMMARY_CACHE_PATH", or(fc.SummaryCachePath, "persona_summary.cache")),
		ProfileDir:        envOr("PROFILE_DIR", fc.ProfileDir),
		PromptTokenBudget: envInt("PROMPT_TOKEN_BUDGET", orInt(fc.PromptTokenBudget, 6000)),

		HistoryWindow: envInt("HISTORY_WINDOW", orInt(fc.HistoryWindow, 6)),
		SessionTTL:    envDuration("SESSION_TTL", fileDuration(fc.SessionTTL, time.Hour)),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", orInt64(fc.MaxUploadBytes, 1048576)), // 1MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 6
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 1048576
	}
	if cfg.PromptTokenBudget <= 0 {
		cfg.PromptTokenBudget = 6000
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PERSONAD_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.PersonaPath == "" {
		return fmt.Errorf("PERSONA_PATH must not be empty")
	}
	return nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orInt64(v, fallback int64) int64 {
	if v > 0 {
		return v
	}
	return fallback
}

func fileDuration(v string, fallback time.Duration) time.Duration {
	if v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
