package state

// Icon set preferences. The persisted file stores these as plain strings;
// anything unrecognized normalizes to the default set.
const (
	IconSetDefault = "default"
	IconSetAlt     = "alt"
)

// NormalizeIconSet maps an arbitrary preference string to a known icon set.
// Unrecognized or empty values fall back to [IconSetDefault].
func NormalizeIconSet(s string) string {
	if s == IconSetAlt {
		return IconSetAlt
	}
	return IconSetDefault
}

// Service describes one monitored network endpoint.
//
// Port is stored as text and is not validated as numeric at this layer; it is
// combined with Host to form a connect target. Duplicates are permitted, and
// identity for mutation is positional (an index into the ordered service
// list), not by name.
//
// The JSON field names match the persisted settings file, where the host is
// historically called "ip".
type Service struct {
	// Name is the display name shown on the status surface.
	Name string `json:"name"`

	// Host is the hostname or IP address of the endpoint.
	Host string `json:"ip"`

	// Port is the TCP port, kept as a string.
	Port string `json:"port"`
}

// Config is the durable configuration of a labwatch instance.
//
// Config is the record that round-trips through the settings file. The
// runtime aggregate health flag is deliberately not part of it; health is
// reset on every process start.
type Config struct {
	// Services is the ordered list of monitored endpoints.
	Services []Service `json:"services"`

	// IntervalSecs is the number of seconds between probe cycles.
	// Zero is allowed and means "probe on every scheduler tick".
	IntervalSecs uint64 `json:"interval_secs"`

	// IconSet selects the icon assets used by the presentation surface,
	// one of [IconSetDefault] or [IconSetAlt].
	IconSet string `json:"icon_set"`
}

// Clone returns a deep copy of the configuration.
//
// The services slice is copied so the caller can mutate the result freely.
func (c Config) Clone() Config {
	cp := c
	cp.Services = append([]Service(nil), c.Services...)
	return cp
}
