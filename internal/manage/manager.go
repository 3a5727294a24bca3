// Package manage exposes the mutation API over the shared labwatch state.
//
// This package is internal to labwatch. Every mutating operation acquires
// the store exclusively, applies its change, persists the new configuration
// to the settings file, and returns the authoritative result. Persistence is
// synchronous but happens after the store lock is released, so file I/O
// latency never blocks the poll loop or other mutators.
//
// A persistence failure is logged and deliberately does not fail or roll
// back the mutation: the in-memory configuration remains authoritative for
// the rest of the process lifetime.
package manage

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labwatch/labwatch/internal/settings"
	"github.com/labwatch/labwatch/internal/state"
	"github.com/labwatch/labwatch/internal/view"
)

// Presenter is the slice of the presentation hub the manager needs: pushing
// a refresh and reading back the latest one.
type Presenter interface {
	Notify(view.Refresh)
	Latest() (view.Refresh, bool)
}

// Manager is the mutation API over a [state.Store].
//
// Manager methods are safe for concurrent use from any number of callers,
// and concurrently with the running poll scheduler.
type Manager struct {
	store     *state.Store
	path      string
	presenter Presenter
	logger    *slog.Logger
}

// NewManager creates a [Manager] persisting to the settings file at path and
// pushing icon-set refreshes to presenter.
//
// A nil logger falls back to [slog.Default].
func NewManager(store *state.Store, path string, presenter Presenter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     store,
		path:      path,
		presenter: presenter,
		logger:    logger,
	}
}

// AddService appends a service to the list and returns the updated list.
// AddService always succeeds; duplicates are permitted.
func (m *Manager) AddService(name, host, port string) []state.Service {
	list := m.store.Append(state.Service{Name: name, Host: host, Port: port})
	m.persist()
	return list
}

// UpdateService replaces the service at index i and returns the updated
// list. Returns [state.ErrIndexOutOfRange], with nothing changed or
// persisted, if i is invalid.
func (m *Manager) UpdateService(i int, name, host, port string) ([]state.Service, error) {
	list, err := m.store.Replace(i, state.Service{Name: name, Host: host, Port: port})
	if err != nil {
		return nil, err
	}
	m.persist()
	return list, nil
}

// RemoveService deletes the service at index i and returns the updated
// list. Returns [state.ErrIndexOutOfRange], with nothing changed or
// persisted, if i is invalid. Indices after i shift down.
func (m *Manager) RemoveService(i int) ([]state.Service, error) {
	list, err := m.store.Delete(i)
	if err != nil {
		return nil, err
	}
	m.persist()
	return list, nil
}

// ListServices returns the current ordered service list. Pure read, no
// persistence call.
func (m *Manager) ListServices() []state.Service {
	return m.store.Services()
}

// SetInterval replaces the probe interval in seconds. Zero is accepted and
// makes the scheduler probe on every tick. The running loop picks the new
// value up on its next tick.
func (m *Manager) SetInterval(secs uint64) {
	m.store.SetIntervalSecs(secs)
	m.persist()
}

// Interval returns the current probe interval in seconds. Pure read.
func (m *Manager) Interval() uint64 {
	return m.store.IntervalSecs()
}

// SetIconSet replaces the icon set preference and returns the normalized
// value.
//
// The presentation surface is refreshed immediately using the cached
// aggregate health from the last completed probe cycle; no new probe is
// forced.
func (m *Manager) SetIconSet(pref string) string {
	normalized := m.store.SetIconSet(pref)

	refresh, _ := m.presenter.Latest()
	refresh.IconSet = normalized
	refresh.Healthy = m.store.Healthy()
	if refresh.CheckedAt.IsZero() {
		refresh.CheckedAt = time.Now()
	}
	if refresh.Services == nil {
		refresh.Services = []view.ServiceStatus{}
	}
	m.presenter.Notify(refresh)

	m.persist()
	return normalized
}

// IconSet returns the current icon set preference. Pure read.
func (m *Manager) IconSet() string {
	return m.store.IconSet()
}

// persist writes the current configuration to the settings file. Failures
// are logged with a correlation ID and swallowed; the in-memory state stays
// authoritative.
func (m *Manager) persist() {
	if err := settings.Save(m.path, m.store.Config()); err != nil {
		m.logger.Error("failed to persist settings",
			"correlation_id", uuid.NewString(),
			"path", m.path,
			"error", err,
		)
	}
}
