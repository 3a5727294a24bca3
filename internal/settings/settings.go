// Package settings persists the durable labwatch configuration as JSON.
//
// This package is internal to labwatch. It owns the on-disk shape of the
// settings file and the built-in default configuration used when no file
// exists or the file cannot be parsed. The runtime aggregate health flag is
// never written to disk; every load yields a configuration whose health will
// be re-established by the first probe cycle.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/labwatch/labwatch/internal/state"
)

// DefaultFileName is the settings file name used when only a directory is
// configured.
const DefaultFileName = "settings.json"

// Default returns the built-in configuration used on first run and whenever
// the settings file cannot be loaded: two example services, a 10-second
// interval, and the default icon set.
func Default() state.Config {
	return state.Config{
		Services: []state.Service{
			{Name: "Google DNS", Host: "8.8.8.8", Port: "53"},
			{Name: "Localhost HTTP", Host: "127.0.0.1", Port: "80"},
		},
		IntervalSecs: 10,
		IconSet:      state.IconSetDefault,
	}
}

// Load reads the settings file at path and returns the stored configuration.
//
// Load never fails hard: a missing, unreadable, or unparsable file returns
// the built-in [Default] configuration together with a non-nil error
// describing the fallback reason. Callers log the error and continue; the
// process always starts with a usable configuration.
//
// Unrecognized icon_set values normalize to the default set, and a nil
// services array normalizes to an empty list.
func Load(path string) (state.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), fmt.Errorf("settings file %s does not exist, using defaults", path)
		}
		return Default(), fmt.Errorf("failed to read settings file: %w", err)
	}

	var cfg state.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse settings file: %w", err)
	}

	cfg.IconSet = state.NormalizeIconSet(cfg.IconSet)
	if cfg.Services == nil {
		cfg.Services = []state.Service{}
	}

	return cfg, nil
}

// Save writes cfg to path as pretty-printed JSON, creating the parent
// directory if needed.
//
// Save failure is non-fatal to callers: the in-memory configuration stays
// authoritative and the next successful mutation will try again.
func Save(path string, cfg state.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
