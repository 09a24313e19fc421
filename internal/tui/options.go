package tui

import (
	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/syssla/internal/config"
	"github.com/hylla/syssla/internal/heatmap"
)

type Option func(*Model)

func WithHeatmapMode(mode heatmap.Mode) Option {
	return func(m *Model) {
		m.heatmapMode = mode
	}
}

func WithKeys(keys config.KeyConfig) Option {
	return func(m *Model) {
		m.keys = newKeyMap(keys)
	}
}

func WithLogger(logger *charmLog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.log = logger
		}
	}
}
