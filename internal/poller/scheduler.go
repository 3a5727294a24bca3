package poller

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/labwatch/labwatch/internal/probe"
	"github.com/labwatch/labwatch/internal/state"
	"github.com/labwatch/labwatch/internal/view"
)

// DefaultTick is the fixed wake-up period of the scheduler loop. It is
// independent of the configured probe interval and bounds how stale an
// interval change can be before the loop observes it.
const DefaultTick = time.Second

// Checker probes a list of services and returns per-service verdicts in
// input order. Implemented by [probe.Prober]; faked in tests.
type Checker interface {
	Check(ctx context.Context, services []state.Service) []probe.Verdict
}

// Scheduler runs the indefinite tick-and-check probe loop.
//
// On each tick the scheduler takes one consistent snapshot of the store
// (interval, services, icon set) and, if the interval has elapsed since the
// last probe cycle, runs a full cycle: probe every service outside the store
// lock, re-acquire briefly to write the aggregate verdict, then notify the
// presentation layer and record the cycle time.
//
// The first tick always probes: lastCheck is initialized far in the past so
// the user sees status immediately instead of waiting out the configured
// interval. An interval of zero disables throttling entirely, probing on
// every tick.
//
// Lifecycle methods are safe for concurrent use; Start and Stop are
// idempotent in the same way as the rest of labwatch's long-lived components.
type Scheduler struct {
	store    *state.Store
	checker  Checker
	notifier view.Notifier
	tick     time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastCheck time.Time
}

// NewScheduler creates a [Scheduler] polling services from store via checker
// and delivering refreshes to notifier.
//
// A non-positive tick falls back to [DefaultTick]. A nil logger falls back
// to [slog.Default].
func NewScheduler(store *state.Store, checker Checker, notifier view.Notifier, tick time.Duration, logger *slog.Logger) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:    store,
		checker:  checker,
		notifier: notifier,
		tick:     tick,
		logger:   logger,
		// force an immediate probe on the first tick
		lastCheck: time.Now().Add(-time.Hour),
	}
}

// Start begins the probe loop in a background goroutine.
//
// Start is non-blocking and idempotent; subsequent calls after the first are
// no-ops, as is Start after Stop. The loop runs until ctx is cancelled or
// [Scheduler.Stop] is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		// run the due-check immediately rather than waiting out the
		// first tick
		s.tickOnce(loopCtx)

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.tickOnce(loopCtx)
			}
		}
	}()
}

// Stop halts the loop and blocks until the goroutine exits, including any
// in-flight probe cycle. Idempotent; Stop before Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// tickOnce performs one due-check and, when due, one full probe cycle.
func (s *Scheduler) tickOnce(ctx context.Context) {
	// one consistent snapshot of everything the cycle needs; the store
	// lock is released before any network I/O
	cfg, _ := s.store.Snapshot()

	s.mu.Lock()
	elapsed := time.Since(s.lastCheck)
	s.mu.Unlock()

	if elapsed < time.Duration(cfg.IntervalSecs)*time.Second {
		return
	}

	verdicts := s.checker.Check(ctx, cfg.Services)
	if ctx.Err() != nil {
		return
	}
	healthy := probe.Aggregate(verdicts)

	// brief re-acquisition to publish the aggregate verdict
	s.store.SetHealthy(healthy)

	now := time.Now()
	s.logCycle(verdicts, healthy)
	s.notifier.Notify(buildRefresh(cfg.IconSet, healthy, now, verdicts))

	s.mu.Lock()
	s.lastCheck = now
	s.mu.Unlock()
}

// logCycle reports per-service failures and, when everything is reachable,
// a single all-clear line.
func (s *Scheduler) logCycle(verdicts []probe.Verdict, healthy bool) {
	for _, v := range verdicts {
		if v.Healthy {
			continue
		}
		s.logger.Warn("service is down",
			"service", v.Service.Name,
			"address", net.JoinHostPort(v.Service.Host, v.Service.Port),
		)
	}
	if healthy && len(verdicts) > 0 {
		s.logger.Info("all systems normal", "services", len(verdicts))
	}
}

// buildRefresh shapes a cycle's verdicts into the presentation payload.
func buildRefresh(iconSet string, healthy bool, checkedAt time.Time, verdicts []probe.Verdict) view.Refresh {
	services := make([]view.ServiceStatus, len(verdicts))
	for i, v := range verdicts {
		services[i] = view.ServiceStatus{
			Name:      v.Service.Name,
			Healthy:   v.Healthy,
			LatencyMs: v.Latency.Milliseconds(),
		}
	}
	return view.Refresh{
		Healthy:   healthy,
		IconSet:   iconSet,
		CheckedAt: checkedAt,
		Services:  services,
	}
}
