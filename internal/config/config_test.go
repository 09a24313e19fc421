package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/syssla.log")
	if cfg.Server.BaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected base url %q", cfg.Server.BaseURL)
	}
	if cfg.Heatmap.DefaultMode != HeatmapModeCombined {
		t.Fatalf("unexpected heatmap mode %q", cfg.Heatmap.DefaultMode)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.File != "/tmp/syssla.log" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/syssla.log")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BaseURL != defaults.Server.BaseURL {
		t.Fatalf("expected default base url, got %q", cfg.Server.BaseURL)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
base_url = "https://tracker.example.com"

[heatmap]
default_mode = "habit-rate"

[keys]
refresh = "R"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/syssla.log"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BaseURL != "https://tracker.example.com" {
		t.Fatalf("unexpected base url %q", cfg.Server.BaseURL)
	}
	if cfg.Heatmap.DefaultMode != HeatmapModeHabitRate {
		t.Fatalf("unexpected heatmap mode %q", cfg.Heatmap.DefaultMode)
	}
	if cfg.Keys.Refresh != "R" {
		t.Fatalf("unexpected refresh key %q", cfg.Keys.Refresh)
	}
	if cfg.Keys.AddCard != "a" {
		t.Fatalf("unset keys should keep defaults, got %q", cfg.Keys.AddCard)
	}
}

func TestLoadRejectsInvalidHeatmapMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[heatmap]
default_mode = "weird"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/tmp/syssla.log")); err == nil {
		t.Fatal("expected error for invalid heatmap mode")
	}
}

func TestValidateRejectsBadBaseURL(t *testing.T) {
	cfg := Default("/tmp/syssla.log")
	cfg.Server.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed base url")
	}
	cfg.Server.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default("/tmp/syssla.log")
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
