// Package view carries health refreshes from the core to presentation
// surfaces.
//
// This package is internal to labwatch. A [Refresh] is the payload delivered
// to the presentation layer: the aggregate health flag, the active icon set,
// and the ordered per-service verdicts of the cycle that produced it. The
// [Hub] retains the latest Refresh and fans new ones out to subscribers
// (e.g. Server-Sent Events handlers) without ever blocking the producer.
package view
