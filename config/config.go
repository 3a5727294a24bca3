// Package config provides YAML parsing for the labwatch process
// configuration.
//
// This configuration covers process-level knobs only: where the mutable
// settings file lives, the HTTP port, the probe timeout, and the scheduler
// tick. The monitored service list itself is NOT configured here; it lives
// in the JSON settings file and is mutated at runtime through the API.
//
// Example configuration:
//
//	settings_path: ${HOME}/.labwatch/settings.json
//	port: 8080
//	probe_timeout: 2s
//	tick: 1s
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultSettingsPath = "settings.json"
	defaultProbeTimeout = 2 * time.Second
	defaultTick         = time.Second
)

// Config is the root configuration structure for the labwatch process.
//
// It maps directly to the YAML configuration file. Use [Load] or [Parse] to
// create a Config.
type Config struct {
	// SettingsPath is where the mutable JSON settings file is stored.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}.
	// Defaults to "settings.json" in the working directory.
	SettingsPath string `yaml:"settings_path"`

	// Port is the HTTP status API port. Defaults to 8080.
	Port int `yaml:"port"`

	// ProbeTimeout is the per-service TCP connect timeout.
	// Defaults to 2s.
	ProbeTimeout Duration `yaml:"probe_timeout"`

	// Tick is the scheduler wake-up period, independent of the configured
	// probe interval. Defaults to 1s.
	Tick Duration `yaml:"tick"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the settings path are expanded before parsing
// completes. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = defaultSettingsPath
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = Duration(defaultProbeTimeout)
	}
	if cfg.Tick == 0 {
		cfg.Tick = Duration(defaultTick)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		SettingsPath: defaultSettingsPath,
		Port:         defaultPort,
		ProbeTimeout: Duration(defaultProbeTimeout),
		Tick:         Duration(defaultTick),
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	expanded, err := expandEnvVars(c.SettingsPath)
	if err != nil {
		return fmt.Errorf("settings_path: %w", err)
	}
	c.SettingsPath = expanded

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.ProbeTimeout.Duration() < 0 {
		return fmt.Errorf("probe_timeout cannot be negative, got %s", c.ProbeTimeout.Duration())
	}

	if c.Tick.Duration() < 0 {
		return fmt.Errorf("tick cannot be negative, got %s", c.Tick.Duration())
	}
	if c.Tick.Duration() > time.Minute {
		return fmt.Errorf("tick must not exceed 1m, got %s", c.Tick.Duration())
	}

	return nil
}
