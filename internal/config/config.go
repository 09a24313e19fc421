package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type HeatmapMode string

const (
	HeatmapModeCombined  HeatmapMode = "combined"
	HeatmapModeHabitRate HeatmapMode = "habit-rate"
	HeatmapModeTasks     HeatmapMode = "tasks"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Heatmap HeatmapConfig `toml:"heatmap"`
	Logging LoggingConfig `toml:"logging"`
	Keys    KeyConfig     `toml:"keys"`
}

type ServerConfig struct {
	BaseURL string `toml:"base_url"`
}

type HeatmapConfig struct {
	DefaultMode HeatmapMode `toml:"default_mode"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
	File  string `toml:"file"`
}

type KeyConfig struct {
	Refresh     string `toml:"refresh"`
	AddCard     string `toml:"add_card"`
	EditCard    string `toml:"edit_card"`
	Archive     string `toml:"archive"`
	HabitsView  string `toml:"habits_view"`
	HeatmapView string `toml:"heatmap_view"`
	CycleMode   string `toml:"cycle_mode"`
}

func Default(logPath string) Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:5000",
		},
		Heatmap: HeatmapConfig{
			DefaultMode: HeatmapModeCombined,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  logPath,
		},
		Keys: KeyConfig{
			Refresh:     "r",
			AddCard:     "a",
			EditCard:    "e",
			Archive:     "A",
			HabitsView:  "2",
			HeatmapView: "3",
			CycleMode:   "m",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	base := strings.TrimSpace(c.Server.BaseURL)
	if base == "" {
		return errors.New("server base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid server.base_url: %q", c.Server.BaseURL)
	}

	switch c.Heatmap.DefaultMode {
	case HeatmapModeCombined, HeatmapModeHabitRate, HeatmapModeTasks:
	default:
		return fmt.Errorf("invalid heatmap.default_mode: %q", c.Heatmap.DefaultMode)
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
