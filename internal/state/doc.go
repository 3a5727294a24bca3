// Package state holds the shared mutable state of a labwatch instance.
//
// This package is internal to labwatch. It provides:
//
//   - [Service]: a single monitored endpoint (name, host, port)
//   - [Config]: the durable configuration (services, interval, icon set)
//   - [Store]: the mutex-guarded holder of Config plus the runtime-only
//     aggregate health flag
//
// The Store is the only shared-mutation discipline in labwatch: the mutation
// API and the poll scheduler both serialize through it. Every operation copies
// data in and out, so callers never alias guarded state, and no reader can
// observe a partially applied mutation.
package state
