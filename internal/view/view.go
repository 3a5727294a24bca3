package view

import (
	"sync"
	"time"
)

// subscriberBuffer is the channel buffer given to each subscriber. Fan-out
// is non-blocking: a subscriber whose buffer is full misses that refresh.
const subscriberBuffer = 16

// ServiceStatus is one service's verdict inside a [Refresh], shaped for
// JSON serialization by the status API.
type ServiceStatus struct {
	// Name is the service's display name.
	Name string `json:"name"`

	// Healthy is the verdict of the most recent probe of this service.
	Healthy bool `json:"healthy"`

	// LatencyMs is the connect latency of the probe in milliseconds.
	LatencyMs int64 `json:"latency_ms"`
}

// Refresh is the payload delivered to presentation surfaces.
//
// A Refresh is produced once per completed poll cycle, and additionally
// whenever the icon set preference changes (reusing the cached aggregate
// health rather than forcing a new probe).
type Refresh struct {
	// Healthy is the aggregate health: AND over all per-service verdicts.
	Healthy bool `json:"healthy"`

	// IconSet is the active icon set preference ("default" or "alt").
	IconSet string `json:"icon_set"`

	// CheckedAt is when the underlying probe cycle completed.
	CheckedAt time.Time `json:"checked_at"`

	// Services holds the per-service verdicts in configuration order.
	Services []ServiceStatus `json:"services"`
}

// Notifier receives presentation refreshes.
//
// Implementations must not block: they are invoked synchronously from the
// poll scheduler and the mutation API.
type Notifier interface {
	Notify(Refresh)
}

// NotifierFunc adapts a function to the [Notifier] interface.
type NotifierFunc func(Refresh)

// Notify calls f(r).
func (f NotifierFunc) Notify(r Refresh) { f(r) }

// Hub is an in-memory [Notifier] that retains the latest [Refresh] and fans
// updates out to subscribers.
//
// Hub is safe for concurrent use. Subscribers receive refreshes on buffered
// channels; delivery is non-blocking and a slow subscriber simply misses
// refreshes rather than stalling the poll loop.
type Hub struct {
	mu          sync.RWMutex
	latest      Refresh
	hasLatest   bool
	subscribers map[chan Refresh]struct{}
}

// NewHub creates an empty [Hub], ready for use.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Refresh]struct{}),
	}
}

// Notify stores r as the latest refresh and delivers it to all subscribers.
func (h *Hub) Notify(r Refresh) {
	h.mu.Lock()
	h.latest = r
	h.hasLatest = true
	for ch := range h.subscribers {
		select {
		case ch <- r:
		default:
			// subscriber is slow, drop the refresh
		}
	}
	h.mu.Unlock()
}

// Latest returns the most recent refresh and whether one has been delivered
// yet.
func (h *Hub) Latest() (Refresh, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasLatest
}

// Subscribe returns a channel receiving every future refresh.
//
// The channel is buffered; if the buffer fills, refreshes are dropped for
// that subscriber. Callers must Unsubscribe when done.
func (h *Hub) Subscribe() <-chan Refresh {
	ch := make(chan Refresh, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// with a channel that was already unsubscribed.
func (h *Hub) Unsubscribe(ch <-chan Refresh) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		if sub == ch {
			delete(h.subscribers, sub)
			close(sub)
			break
		}
	}
}
