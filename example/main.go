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
)

func main() {
	// keep the demo self-contained: settings live in a temp file
	settings := os.TempDir() + "/labwatch-demo.json"

	lw, err := labwatch.New(
		labwatch.WithSettingsPath(settings),
		labwatch.WithPort(8080),
		labwatch.WithProbeTimeout(2*time.Second),
		labwatch.WithRefreshCallback(func(r labwatch.Refresh) {
			slog.Info("refresh", "healthy", r.Healthy, "services", len(r.Services))
		}),
	)
	if err != nil {
		slog.Error("failed to create labwatch", "error", err)
		os.Exit(1)
	}

	// seed a couple of services; these persist to the settings file
	lw.AddService("Google DNS", "8.8.8.8", "53")
	lw.AddService("Localhost HTTP", "127.0.0.1", "80")
	lw.SetInterval(10)

	fmt.Println()
	fmt.Println("  LabWatch Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080/api/status for current health")
	fmt.Println("  Stream http://localhost:8080/api/sse for live updates")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := lw.Start(ctx); err != nil {
		slog.Error("labwatch error", "error", err)
		os.Exit(1)
	}
}
