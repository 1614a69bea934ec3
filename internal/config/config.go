// Package config loads ringctl settings from JSONC files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/pavanmanishd/ringarena"
)

// FileName is the name of the config file inside the global config directory.
const FileName = "config.json"

var (
	ErrNotFound = errors.New("config file not found")
	ErrRead     = errors.New("cannot read config file")
	ErrInvalid  = errors.New("invalid config file")
	ErrCapacity = errors.New("capacity must be at least 2 bytes")
	ErrLogLevel = errors.New("unknown log level")
)

// Config holds all ringctl options.
type Config struct {
	Capacity    int    `json:"capacity"`
	LogCapacity int    `json:"log_capacity"`
	LogLevel    string `json:"log_level,omitempty"`
	NoColor     bool   `json:"no_color,omitempty"`
	HistoryFile string `json:"history_file,omitempty"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string // Path to global config if loaded, empty otherwise
	Explicit string // Path to --config file if loaded, empty otherwise
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Capacity:    4096,
		LogCapacity: 8192,
		LogLevel:    "info",
	}
}

// GlobalPath returns $XDG_CONFIG_HOME/ringctl/config.json, falling back to
// ~/.config/ringctl/config.json. env is consulted before the process
// environment. Returns an empty string if no home directory is known.
func GlobalPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok && after != "" {
			return filepath.Join(after, "ringctl", FileName)
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ringctl", FileName)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "ringctl", FileName)
	}

	return ""
}

// Load builds the configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (optional)
// 3. Explicit config file via path (must exist if non-empty)
//
// Flag overrides are applied by the caller with Merge.
func Load(path string, env []string) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	if global := GlobalPath(env); global != "" {
		globalCfg, loaded, err := loadFile(global, false)
		if err != nil {
			return Config{}, Sources{}, err
		}
		if loaded {
			sources.Global = global
			cfg = Merge(cfg, globalCfg)
		}
	}

	if path != "" {
		explicitCfg, _, err := loadFile(path, true)
		if err != nil {
			return Config{}, Sources{}, err
		}
		sources.Explicit = path
		cfg = Merge(cfg, explicitCfg)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

// loadFile loads a config file. If mustExist is false, missing files return
// a zero config and loaded=false.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("%w: %s", ErrRead, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}

	return cfg, true, nil
}

// Parse decodes a JSONC document. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	dec := json.NewDecoder(strings.NewReader(string(standardized)))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

// Merge returns base with every non-zero field of overlay applied.
func Merge(base, overlay Config) Config {
	if overlay.Capacity != 0 {
		base.Capacity = overlay.Capacity
	}

	if overlay.LogCapacity != 0 {
		base.LogCapacity = overlay.LogCapacity
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.NoColor {
		base.NoColor = true
	}

	if overlay.HistoryFile != "" {
		base.HistoryFile = overlay.HistoryFile
	}

	return base
}

// Validate checks that cfg can be used to open the arenas.
func Validate(cfg Config) error {
	if cfg.Capacity < ringarena.MinCapacity {
		return fmt.Errorf("%w: capacity=%d", ErrCapacity, cfg.Capacity)
	}

	if cfg.LogCapacity < ringarena.MinCapacity {
		return fmt.Errorf("%w: log_capacity=%d", ErrCapacity, cfg.LogCapacity)
	}

	if _, err := cfg.Level(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel. An empty LogLevel means info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrLogLevel, c.LogLevel)
	}
	return level, nil
}

// Format returns the config as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
