// Package probe performs TCP liveness checks for labwatch.
//
// This package is internal to labwatch. A probe is a single bounded-timeout
// TCP connection attempt against a service's host:port; the service is
// healthy iff the connection establishes within the timeout. Probes perform
// real blocking network I/O and must run outside any hold on the shared
// state store.
package probe

import (
	"context"
	"net"
	"time"

	"github.com/labwatch/labwatch/internal/state"
)

// DefaultTimeout is the per-attempt connect timeout.
const DefaultTimeout = 2 * time.Second

// Verdict holds the outcome of probing a single service.
type Verdict struct {
	// Service is the endpoint that was probed.
	Service state.Service

	// Healthy is true if a TCP connection was established within the timeout.
	Healthy bool

	// Latency is the time taken by the connection attempt.
	Latency time.Duration
}

// DialFunc establishes a connection to a network address within a timeout.
// It matches the signature of [net.DialTimeout] and exists so tests can fake
// the network.
type DialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// Prober probes services sequentially over TCP.
//
// Probing never parallelizes: one connect attempt at a time, in input order,
// a hard per-attempt timeout bounding the stall from any single misbehaving
// target. A malformed host:port simply fails to dial and yields an unhealthy
// verdict; a single bad entry never aborts the cycle.
type Prober struct {
	timeout time.Duration
	dial    DialFunc
}

// NewProber creates a [Prober] with the given per-attempt timeout.
// A non-positive timeout falls back to [DefaultTimeout].
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		timeout: timeout,
		dial:    net.DialTimeout,
	}
}

// Check probes every service once and returns one [Verdict] per service,
// preserving input order.
//
// Check returns early with the verdicts gathered so far if ctx is cancelled
// between attempts; individual attempts are still bounded by the configured
// timeout rather than the context.
func (p *Prober) Check(ctx context.Context, services []state.Service) []Verdict {
	verdicts := make([]Verdict, 0, len(services))

	for _, svc := range services {
		if ctx.Err() != nil {
			return verdicts
		}

		addr := net.JoinHostPort(svc.Host, svc.Port)
		start := time.Now()
		conn, err := p.dial("tcp", addr, p.timeout)
		latency := time.Since(start)
		if err == nil {
			_ = conn.Close()
		}

		verdicts = append(verdicts, Verdict{
			Service: svc,
			Healthy: err == nil,
			Latency: latency,
		})
	}

	return verdicts
}

// Aggregate reduces a cycle's verdicts to the overall health flag: the AND
// of all per-service verdicts. An empty cycle is vacuously healthy.
func Aggregate(verdicts []Verdict) bool {
	for _, v := range verdicts {
		if !v.Healthy {
			return false
		}
	}
	return true
}
