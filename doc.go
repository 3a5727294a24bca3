// Package labwatch monitors a user-editable set of network endpoints by
// periodically attempting a TCP connection to each, and exposes per-service
// and aggregate health to presentation surfaces.
//
// labwatch is designed as an SDK-first library: an [App] owns the shared
// health store, a background poll scheduler, and an HTTP status API, while
// the mutation methods (add/remove/update service, interval, icon set) can
// be called concurrently from any goroutine. Every mutation is persisted to
// a JSON settings file before the call returns and takes effect on the poll
// loop's next tick, without restarting anything.
//
// # Quick Start
//
//	app, err := labwatch.New(labwatch.WithSettingsPath("settings.json"))
//	if err != nil {
//	    slog.Error("failed to create labwatch", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	app.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// labwatch uses the functional options pattern:
//
//	app, err := labwatch.New(
//	    labwatch.WithSettingsPath("/var/lib/labwatch/settings.json"),
//	    labwatch.WithPort(9090),
//	    labwatch.WithProbeTimeout(5 * time.Second),
//	    labwatch.WithRefreshCallback(func(r labwatch.Refresh) {
//	        if !r.Healthy {
//	            log.Println("something is down")
//	        }
//	    }),
//	)
//
// # Architecture
//
// labwatch consists of several internal packages (under internal/):
//
//   - internal/state: the mutex-guarded configuration and health store
//   - internal/settings: JSON persistence of the durable configuration
//   - internal/probe: sequential bounded-timeout TCP liveness checks
//   - internal/poller: the tick-and-check probe loop
//   - internal/view: refresh payloads and the pub/sub hub
//   - internal/manage: the mutation API with synchronous persistence
//   - internal/server: the HTTP status and mutation API
//
// The internal packages are not part of the public API and may change
// without notice.
package labwatch
