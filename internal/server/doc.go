// Package server exposes labwatch health and mutations over HTTP.
//
// This package is internal to labwatch. It is the concrete presentation
// adapter for headless deployments: a JSON status endpoint, a Server-Sent
// Events stream of refreshes, and the mutation API (services, interval,
// icon set) for command surfaces to drive.
package server
