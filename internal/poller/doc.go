// Package poller runs the autonomous probe loop for labwatch.
//
// This package is internal to labwatch. The [Scheduler] wakes on a fixed
// short tick, compares elapsed time against the store's current interval,
// and when due snapshots the configuration, probes every service over TCP,
// writes the aggregate verdict back to the store, and notifies the
// presentation layer.
//
// The interval is re-read from the store on every tick, so interval changes
// take effect on the next due-check without restarting the loop. The tick
// period bounds the worst-case lag between an interval change and its first
// use.
package poller
