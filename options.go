package labwatch

import (
	"errors"
	"log/slog"
	"time"
)

// appConfig holds mutable state during App construction.
type appConfig struct {
	settingsPath string
	port         int
	tick         time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	callbacks    []func(Refresh)
}

// Option is a function that configures an [App] instance during
// construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
//
// Built-in options: [WithSettingsPath], [WithPort], [WithTick],
// [WithProbeTimeout], [WithLogger], [WithRefreshCallback].
type Option func(*appConfig) error

// WithSettingsPath sets where the mutable JSON settings file is stored.
//
// The file is loaded once at construction; a missing or unparsable file
// falls back to the built-in default configuration (two example services,
// 10-second interval). Every mutation rewrites the file. Defaults to
// "settings.json" in the working directory.
func WithSettingsPath(path string) Option {
	return func(cfg *appConfig) error {
		if path == "" {
			return errors.New("settings path cannot be empty")
		}
		cfg.settingsPath = path
		return nil
	}
}

// WithPort sets the HTTP port for the status API.
//
// Port 0 binds an ephemeral port, which is mainly useful in tests.
// Defaults to 8080.
//
// Returns an error if the port is outside the valid range (0-65535).
func WithPort(port int) Option {
	return func(cfg *appConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port must be between 0 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTick sets the scheduler wake-up period.
//
// The tick is independent of the configured probe interval; it bounds how
// quickly interval changes take effect and how often a zero interval probes.
// Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithTick(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("tick must be positive")
		}
		cfg.tick = d
		return nil
	}
}

// WithProbeTimeout sets the per-service TCP connect timeout.
//
// Each probe cycle attempts one sequential connect per service, so the
// worst-case cycle duration is timeout × service count. Defaults to 2
// seconds.
//
// Returns an error if the duration is zero or negative.
func WithProbeTimeout(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("probe timeout must be positive")
		}
		cfg.probeTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the App.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRefreshCallback registers a function to be called on every
// presentation refresh: once per completed probe cycle and immediately on
// icon set changes.
//
// Multiple callbacks may be registered; they execute in registration order
// from a single goroutine. Callbacks must be non-blocking; long-running
// work should be dispatched to a separate goroutine. Panics within
// callbacks are recovered and logged; they do not crash the poll loop.
//
// Nil callbacks are silently ignored.
func WithRefreshCallback(cb func(Refresh)) Option {
	return func(cfg *appConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
