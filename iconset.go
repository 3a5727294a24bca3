package labwatch

import (
	"time"

	"github.com/labwatch/labwatch/internal/state"
	"github.com/labwatch/labwatch/internal/view"
)

// IconSet selects which icon assets a presentation surface shows for the
// aggregate health state.
//
// IconSet is a closed enumeration of two variants. Parsing an unrecognized
// value yields [IconSetDefault] rather than an error, matching the settings
// file semantics.
type IconSet string

const (
	// IconSetDefault shows green/red status icons.
	IconSetDefault IconSet = state.IconSetDefault

	// IconSetAlt shows checked/cross status icons, rendered as template
	// images on platforms that support them.
	IconSetAlt IconSet = state.IconSetAlt
)

// iconAssets is the single place mapping (icon set, health) to an asset
// name. Presentation code must go through [IconSet.Asset] instead of
// comparing preference strings.
var iconAssets = map[IconSet]map[bool]string{
	IconSetDefault: {true: "green.png", false: "red.png"},
	IconSetAlt:     {true: "checked.png", false: "cross.png"},
}

// ParseIconSet maps an arbitrary string to an [IconSet], defaulting to
// [IconSetDefault] for anything unrecognized.
func ParseIconSet(s string) IconSet {
	return IconSet(state.NormalizeIconSet(s))
}

// String returns the string representation of the icon set.
// This implements the fmt.Stringer interface.
func (s IconSet) String() string {
	return string(s)
}

// Asset returns the icon asset name for the given health state.
func (s IconSet) Asset(healthy bool) string {
	assets, ok := iconAssets[s]
	if !ok {
		assets = iconAssets[IconSetDefault]
	}
	return assets[healthy]
}

// Service describes one monitored network endpoint.
//
// Port is kept as text; it is combined with Host to form the TCP connect
// target. Services are identified positionally: mutation and removal take
// an index into the ordered list, so callers must re-fetch the list after
// any mutation before issuing another index-based call.
type Service struct {
	// Name is the display name.
	Name string

	// Host is the hostname or IP address.
	Host string

	// Port is the TCP port as a string.
	Port string
}

// ServiceHealth is one service's verdict inside a [Refresh].
type ServiceHealth struct {
	// Name is the service's display name.
	Name string

	// Healthy is the verdict of the most recent probe.
	Healthy bool

	// Latency is the connect latency of the probe.
	Latency time.Duration
}

// Refresh is the payload delivered to refresh callbacks: the aggregate
// health, the active icon set, and the ordered per-service verdicts of the
// cycle that produced it.
//
// A Refresh is produced once per completed poll cycle, and additionally
// whenever the icon set preference changes (carrying the cached aggregate
// health rather than forcing a new probe).
type Refresh struct {
	// Healthy is the aggregate health: AND over all per-service verdicts.
	// An empty service list is vacuously healthy.
	Healthy bool

	// IconSet is the active icon set preference.
	IconSet IconSet

	// CheckedAt is when the underlying probe cycle completed.
	CheckedAt time.Time

	// Services holds per-service verdicts in configuration order.
	Services []ServiceHealth
}

// toPublicServices converts internal services to the public type.
func toPublicServices(in []state.Service) []Service {
	out := make([]Service, len(in))
	for i, svc := range in {
		out[i] = Service{Name: svc.Name, Host: svc.Host, Port: svc.Port}
	}
	return out
}

// toPublicRefresh converts an internal refresh to the public type.
func toPublicRefresh(in view.Refresh) Refresh {
	services := make([]ServiceHealth, len(in.Services))
	for i, svc := range in.Services {
		services[i] = ServiceHealth{
			Name:    svc.Name,
			Healthy: svc.Healthy,
			Latency: time.Duration(svc.LatencyMs) * time.Millisecond,
		}
	}
	return Refresh{
		Healthy:   in.Healthy,
		IconSet:   IconSet(in.IconSet),
		CheckedAt: in.CheckedAt,
		Services:  services,
	}
}
