package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.HistoryWindow != 6 {
		t.Errorf("expected default history window 6, got %d", cfg.HistoryWindow)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected default session ttl 1h, got %v", cfg.SessionTTL)
	}
	if cfg.PersonaPath != "persona_questionnaire.md" {
		t.Errorf("unexpected persona path: %q", cfg.PersonaPath)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("HISTORY_WINDOW", "10")
	t.Setenv("SESSION_TTL", "30m")

	cfg := Load()
	if cfg.Port != "9100" {
		t.Errorf("expected port 9100, got %q", cfg.Port)
	}
	if cfg.HistoryWindow != 10 {
		t.Errorf("expected history window 10, got %d", cfg.HistoryWindow)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %v", cfg.SessionTTL)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personad.yaml")
	yml := "port: \"9200\"\npersona_path: /data/q.md\nhistory_window: 12\nsession_ttl: 2h\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PERSONAD_CONFIG", path)

	cfg := Load()
	if cfg.Port != "9200" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
	if cfg.PersonaPath != "/data/q.md" {
		t.Errorf("expected persona path from file, got %q", cfg.PersonaPath)
	}
	if cfg.HistoryWindow != 12 {
		t.Errorf("expected history window from file, got %d", cfg.HistoryWindow)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected ttl from file, got %v", cfg.SessionTTL)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personad.yaml")
	if err := os.WriteFile(path, []byte("port: \"9200\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PERSONAD_CONFIG", path)
	t.Setenv("PORT", "9300")

	if cfg := Load(); cfg.Port != "9300" {
		t.Errorf("expected env to win, got %q", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{PersonaPath: "q.md"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing api keys")
	}
	cfg.APIKey = "k"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing anthropic key")
	}
	cfg.AnthropicAPIKey = "a"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
