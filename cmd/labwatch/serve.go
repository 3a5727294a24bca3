package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labwatch/labwatch"
	"github.com/labwatch/labwatch/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// loadConfig loads the process config file, or the built-in defaults when
// no file was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

// buildApp turns a process config into a labwatch App.
func buildApp(cfg *config.Config, logger *slog.Logger) (*labwatch.App, error) {
	return labwatch.New(
		labwatch.WithSettingsPath(cfg.SettingsPath),
		labwatch.WithPort(cfg.Port),
		labwatch.WithProbeTimeout(cfg.ProbeTimeout.Duration()),
		labwatch.WithTick(cfg.Tick.Duration()),
		labwatch.WithLogger(logger),
	)
}

// serveCmd runs the monitor and the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor and HTTP status API",
	Long: `Run the labwatch monitor.

The process will:
  - Load the JSON settings file (or fall back to two example services)
  - Start probing all configured services over TCP
  - Serve the status and mutation API on the configured port

It runs until interrupted (Ctrl+C) or it receives SIGTERM.

Example:
  labwatch serve
  labwatch serve -c labwatch.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to process config file (optional)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("starting labwatch",
		"settings_path", cfg.SettingsPath,
		"port", cfg.Port,
		"probe_timeout", cfg.ProbeTimeout.Duration().String(),
	)

	app, err := buildApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create labwatch: %w", err)
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("monitor error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("monitor error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
