package state

import (
	"errors"
	"sync"
)

// ErrIndexOutOfRange is returned by index-based mutations that reference a
// nonexistent list position. The store is left unchanged.
var ErrIndexOutOfRange = errors.New("service index out of range")

// Store is the exclusively-guarded holder of the durable [Config] plus the
// runtime-only aggregate health flag.
//
// Two long-lived actors contend for the Store: the mutation API (driven by
// external requests) and the single poll scheduler loop. All access goes
// through the methods below, each of which holds the lock for the shortest
// possible critical section. Blocking I/O (network probes, settings file
// writes) must never happen while the lock is held; callers snapshot what
// they need, release, and write results back in a second acquisition.
//
// The health flag starts true on every construction regardless of what the
// previous process observed, so a restart never alarms on stale state.
type Store struct {
	mu      sync.Mutex
	cfg     Config
	healthy bool
}

// NewStore creates a [Store] seeded with cfg. Runtime health starts healthy.
func NewStore(cfg Config) *Store {
	return &Store{
		cfg:     cfg.Clone(),
		healthy: true,
	}
}

// Snapshot returns a consistent copy of the configuration and the current
// aggregate health, taken under one lock acquisition.
//
// The poll scheduler uses this at the top of each tick; any mutation that
// completed before the call is guaranteed visible in the result.
func (s *Store) Snapshot() (Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone(), s.healthy
}

// Services returns a copy of the current ordered service list.
func (s *Store) Services() []Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Service(nil), s.cfg.Services...)
}

// Append adds a service to the end of the list and returns the updated list.
// Append always succeeds; duplicates are permitted.
func (s *Store) Append(svc Service) []Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Services = append(s.cfg.Services, svc)
	return append([]Service(nil), s.cfg.Services...)
}

// Replace swaps the service at index i and returns the updated list.
// Returns [ErrIndexOutOfRange], with no change applied, if i is invalid.
func (s *Store) Replace(i int, svc Service) ([]Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.cfg.Services) {
		return nil, ErrIndexOutOfRange
	}
	s.cfg.Services[i] = svc
	return append([]Service(nil), s.cfg.Services...), nil
}

// Delete removes the service at index i and returns the updated list.
// Returns [ErrIndexOutOfRange], with no change applied, if i is invalid.
// Indices of the services after i shift down by one.
func (s *Store) Delete(i int) ([]Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.cfg.Services) {
		return nil, ErrIndexOutOfRange
	}
	s.cfg.Services = append(s.cfg.Services[:i], s.cfg.Services[i+1:]...)
	return append([]Service(nil), s.cfg.Services...), nil
}

// IntervalSecs returns the current probe interval in seconds.
func (s *Store) IntervalSecs() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.IntervalSecs
}

// SetIntervalSecs replaces the probe interval. Any unsigned value is
// accepted, including zero. The scheduler re-reads the interval on every
// tick, so the change takes effect on the next due-check without restarting
// the loop.
func (s *Store) SetIntervalSecs(secs uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.IntervalSecs = secs
}

// IconSet returns the current icon set preference.
func (s *Store) IconSet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.IconSet
}

// SetIconSet replaces the icon set preference, normalizing unknown values
// to the default set.
func (s *Store) SetIconSet(pref string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.IconSet = NormalizeIconSet(pref)
	return s.cfg.IconSet
}

// Healthy returns the cached aggregate health from the most recent probe
// cycle (true if no cycle has completed yet).
func (s *Store) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// SetHealthy records the aggregate verdict of a completed probe cycle.
func (s *Store) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// Config returns a copy of the current durable configuration.
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}
