// Package config loads mdview settings from defaults, an optional YAML file
// and MDVIEW_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/erkantaylan/mdview/internal/enhance"
	"github.com/erkantaylan/mdview/internal/tracker"
)

// Config holds every runtime setting.
type Config struct {
	Port           int           `koanf:"port"`
	Source         string        `koanf:"source"`
	Locale         string        `koanf:"locale"`
	StateFile      string        `koanf:"state_file"`
	HighlightStyle string        `koanf:"highlight_style"`
	Debounce       time.Duration `koanf:"debounce"`

	// Viewport fraction cut from the bottom when deciding which sections
	// are visible, and the minimum visible fraction of a section.
	TrackerBottomMargin float64 `koanf:"tracker_bottom_margin"`
	TrackerThreshold    float64 `koanf:"tracker_threshold"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Port:                3000,
		Source:              "tools.md",
		Locale:              enhance.DefaultLocale,
		StateFile:           defaultStateFile(),
		HighlightStyle:      "github",
		Debounce:            100 * time.Millisecond,
		TrackerBottomMargin: tracker.DefaultBottomMargin,
		TrackerThreshold:    tracker.DefaultThreshold,
	}
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".mdview-state.yml"
	}
	return filepath.Join(dir, "mdview", "state.yml")
}

// Load reads path if it exists, then overlays MDVIEW_* variables
// (MDVIEW_PORT -> port, MDVIEW_STATE_FILE -> state_file).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("MDVIEW_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MDVIEW_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if _, err := enhance.Locale(c.Locale); err != nil {
		return err
	}
	if c.StateFile == "" {
		return fmt.Errorf("state_file is required")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must be non-negative")
	}
	if c.TrackerBottomMargin < 0 || c.TrackerBottomMargin >= 1 {
		return fmt.Errorf("tracker_bottom_margin must be in [0, 1)")
	}
	if c.TrackerThreshold < 0 || c.TrackerThreshold > 1 {
		return fmt.Errorf("tracker_threshold must be in [0, 1]")
	}
	return nil
}
