package labwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labwatch/labwatch/internal/manage"
	"github.com/labwatch/labwatch/internal/poller"
	"github.com/labwatch/labwatch/internal/probe"
	"github.com/labwatch/labwatch/internal/server"
	"github.com/labwatch/labwatch/internal/settings"
	"github.com/labwatch/labwatch/internal/state"
	"github.com/labwatch/labwatch/internal/view"
)

const (
	defaultSettingsPath = "settings.json"
	defaultPort         = 8080
)

// ErrIndexOutOfRange is returned by index-based mutations that reference a
// nonexistent list position. The configuration is left unchanged and
// nothing is persisted.
var ErrIndexOutOfRange = state.ErrIndexOutOfRange

// App is the main orchestrator: it owns the shared health store, the poll
// scheduler, the presentation hub, and the HTTP status API.
//
// Create an App with [New], then either call [App.Start] to run the poll
// loop and HTTP server, or drive the mutation methods directly. Mutation
// methods are safe for concurrent use at any time, before or during Start.
//
// The typical lifecycle is:
//
//	app, err := labwatch.New(labwatch.WithSettingsPath(path))
//	if err != nil {
//	    slog.Error("failed to create labwatch", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	app.Start(ctx) // blocks until context cancelled
type App struct {
	settingsPath string
	port         int
	tick         time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	callbacks    []func(Refresh)

	store   *state.Store
	hub     *view.Hub
	manager *manage.Manager
}

// New creates an [App] with the given options.
//
// The settings file is loaded immediately: a missing or unparsable file
// falls back to the built-in default configuration (two example services,
// 10-second interval, default icon set) and the failure is logged, never
// returned. Runtime health starts healthy regardless of what the previous
// run observed.
func New(opts ...Option) (*App, error) {
	cfg := &appConfig{
		settingsPath: defaultSettingsPath,
		port:         defaultPort,
		tick:         poller.DefaultTick,
		probeTimeout: probe.DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	stored, err := settings.Load(cfg.settingsPath)
	if err != nil {
		// fall back to defaults; the poller and mutation API work
		// either way and the next mutation rewrites the file
		logger.Warn("settings not loaded, using defaults",
			"path", cfg.settingsPath,
			"error", err,
		)
	} else {
		logger.Info("settings loaded",
			"path", cfg.settingsPath,
			"services", len(stored.Services),
			"interval_secs", stored.IntervalSecs,
		)
	}

	store := state.NewStore(stored)
	hub := view.NewHub()

	return &App{
		settingsPath: cfg.settingsPath,
		port:         cfg.port,
		tick:         cfg.tick,
		probeTimeout: cfg.probeTimeout,
		logger:       logger,
		callbacks:    cfg.callbacks,
		store:        store,
		hub:          hub,
		manager:      manage.NewManager(store, cfg.settingsPath, hub, logger),
	}, nil
}

// Start runs the poll loop and the HTTP status API.
//
// Start is a blocking call that returns when the provided context is
// cancelled (nil on graceful shutdown) or immediately with an error if the
// HTTP server fails to bind. The first probe cycle runs within one tick of
// startup regardless of the configured interval, so status is visible
// without an initial wait.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("labwatch starting",
		"services", len(a.store.Services()),
		"interval_secs", a.store.IntervalSecs(),
		"port", a.port,
	)

	if ctx.Err() != nil {
		return nil
	}

	// dispatch refreshes to registered callbacks from one goroutine
	var wg sync.WaitGroup
	var sub <-chan view.Refresh
	if len(a.callbacks) > 0 {
		sub = a.hub.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range sub {
				public := toPublicRefresh(r)
				for _, cb := range a.callbacks {
					invokeCallbackSafe(cb, public, a.logger)
				}
			}
		}()
	}

	prober := probe.NewProber(a.probeTimeout)
	scheduler := poller.NewScheduler(a.store, prober, a.hub, a.tick, a.logger)
	scheduler.Start(ctx)

	cleanup := func() {
		scheduler.Stop()
		if sub != nil {
			a.hub.Unsubscribe(sub) // closes the channel, ending the dispatcher
		}
		wg.Wait()
	}

	httpServer := server.NewServer(a.manager, a.hub, a.port, a.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	a.logger.Info("labwatch stopped")
	return nil
}

// AddService appends a service to the monitored list and returns the
// updated list. Duplicates are permitted. The new configuration is
// persisted before AddService returns and probed on the loop's next tick.
func (a *App) AddService(name, host, port string) []Service {
	return toPublicServices(a.manager.AddService(name, host, port))
}

// UpdateService replaces the service at index i and returns the updated
// list. Returns [ErrIndexOutOfRange] if i is invalid.
func (a *App) UpdateService(i int, name, host, port string) ([]Service, error) {
	list, err := a.manager.UpdateService(i, name, host, port)
	if err != nil {
		return nil, err
	}
	return toPublicServices(list), nil
}

// RemoveService removes the service at index i and returns the updated
// list. Returns [ErrIndexOutOfRange] if i is invalid. Indices after i shift
// down, so re-fetch the list before issuing another index-based mutation.
func (a *App) RemoveService(i int) ([]Service, error) {
	list, err := a.manager.RemoveService(i)
	if err != nil {
		return nil, err
	}
	return toPublicServices(list), nil
}

// ListServices returns the current ordered service list.
func (a *App) ListServices() []Service {
	return toPublicServices(a.manager.ListServices())
}

// SetInterval replaces the probe interval in seconds. Zero is accepted and
// makes the scheduler probe on every tick rather than being rejected. The
// running loop picks the new value up on its next tick.
func (a *App) SetInterval(secs uint64) {
	a.manager.SetInterval(secs)
}

// Interval returns the current probe interval in seconds.
func (a *App) Interval() uint64 {
	return a.manager.Interval()
}

// SetIconSet replaces the icon set preference and returns the normalized
// value. The presentation surface refreshes immediately using the cached
// aggregate health; no new probe is forced.
func (a *App) SetIconSet(pref IconSet) IconSet {
	return IconSet(a.manager.SetIconSet(string(pref)))
}

// IconSet returns the current icon set preference.
func (a *App) IconSet() IconSet {
	return IconSet(a.manager.IconSet())
}

// Healthy returns the cached aggregate health from the most recent probe
// cycle, true if no cycle has completed yet.
func (a *App) Healthy() bool {
	return a.store.Healthy()
}

// Status returns the most recent presentation refresh. Before the first
// probe cycle completes it returns an empty, healthy refresh carrying the
// current icon set.
func (a *App) Status() Refresh {
	if latest, ok := a.hub.Latest(); ok {
		return toPublicRefresh(latest)
	}
	return Refresh{
		Healthy:  true,
		IconSet:  IconSet(a.store.IconSet()),
		Services: []ServiceHealth{},
	}
}

// CheckNow probes every configured service once, outside the scheduler's
// cadence, and returns the resulting refresh.
//
// The aggregate verdict is written back to the store and delivered to the
// presentation surfaces exactly as a scheduled cycle's would be. CheckNow
// performs blocking network I/O: the worst case is probe timeout × service
// count.
func (a *App) CheckNow(ctx context.Context) Refresh {
	cfg, _ := a.store.Snapshot()

	prober := probe.NewProber(a.probeTimeout)
	verdicts := prober.Check(ctx, cfg.Services)
	healthy := probe.Aggregate(verdicts)
	a.store.SetHealthy(healthy)

	services := make([]view.ServiceStatus, len(verdicts))
	for i, v := range verdicts {
		services[i] = view.ServiceStatus{
			Name:      v.Service.Name,
			Healthy:   v.Healthy,
			LatencyMs: v.Latency.Milliseconds(),
		}
	}
	refresh := view.Refresh{
		Healthy:   healthy,
		IconSet:   cfg.IconSet,
		CheckedAt: time.Now(),
		Services:  services,
	}
	a.hub.Notify(refresh)

	return toPublicRefresh(refresh)
}

// Port returns the configured HTTP port for the status API.
func (a *App) Port() int {
	return a.port
}

// SettingsPath returns the path of the JSON settings file.
func (a *App) SettingsPath() string {
	return a.settingsPath
}

// invokeCallbackSafe calls a refresh callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(Refresh), r Refresh, logger *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("refresh callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", rec,
			)
		}
	}()
	cb(r)
}
