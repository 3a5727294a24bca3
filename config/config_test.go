package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.SettingsPath != "settings.json" {
		t.Errorf("SettingsPath = %q, want settings.json", cfg.SettingsPath)
	}
	if cfg.ProbeTimeout.Duration() != 2*time.Second {
		t.Errorf("ProbeTimeout = %s, want 2s", cfg.ProbeTimeout.Duration())
	}
	if cfg.Tick.Duration() != time.Second {
		t.Errorf("Tick = %s, want 1s", cfg.Tick.Duration())
	}
}

func TestParse_AllFields(t *testing.T) {
	yaml := `
settings_path: /var/lib/labwatch/settings.json
port: 9090
probe_timeout: 5s
tick: 500ms
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.SettingsPath != "/var/lib/labwatch/settings.json" {
		t.Errorf("SettingsPath = %q", cfg.SettingsPath)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.ProbeTimeout.Duration() != 5*time.Second {
		t.Errorf("ProbeTimeout = %s, want 5s", cfg.ProbeTimeout.Duration())
	}
	if cfg.Tick.Duration() != 500*time.Millisecond {
		t.Errorf("Tick = %s, want 500ms", cfg.Tick.Duration())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("port: [nope")); err == nil {
		t.Error("Parse() error = nil for invalid YAML")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("probe_timeout: fast"))
	if err == nil {
		t.Fatal("Parse() error = nil for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("Parse() error = %v, want invalid duration", err)
	}
}

func TestParse_PortValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		ok   bool
	}{
		{"negative port", "port: -1", false},
		{"port too high", "port: 70000", false},
		{"valid port", "port: 443", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if (err == nil) != tt.ok {
				t.Errorf("Parse(%q) error = %v, want ok=%v", tt.yaml, err, tt.ok)
			}
		})
	}
}

func TestParse_TickValidation(t *testing.T) {
	if _, err := Parse([]byte("tick: 2m")); err == nil {
		t.Error("Parse() error = nil for a tick above 1m")
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("LABWATCH_TEST_DIR", "/tmp/labwatch")

	cfg, err := Parse([]byte("settings_path: ${LABWATCH_TEST_DIR}/settings.json"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.SettingsPath != "/tmp/labwatch/settings.json" {
		t.Errorf("SettingsPath = %q, want expanded path", cfg.SettingsPath)
	}
}

func TestParse_EnvExpansionDefault(t *testing.T) {
	cfg, err := Parse([]byte("settings_path: ${LABWATCH_UNSET_VAR:-fallback}/settings.json"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.SettingsPath != "fallback/settings.json" {
		t.Errorf("SettingsPath = %q, want default-expanded path", cfg.SettingsPath)
	}
}

func TestParse_EnvExpansionMissing(t *testing.T) {
	_, err := Parse([]byte("settings_path: ${LABWATCH_DEFINITELY_UNSET}/settings.json"))
	if err == nil {
		t.Error("Parse() error = nil for an unset variable without default")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labwatch.yaml")
	if err := os.WriteFile(path, []byte("port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil for a missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Port != 8080 || cfg.SettingsPath != "settings.json" {
		t.Errorf("Default() = %+v", cfg)
	}
}
