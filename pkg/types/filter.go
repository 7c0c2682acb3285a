package types

// FilterConfig holds the inclusion rules for one monitoring session.
// It is fixed for the lifetime of a session; a new config means a new session.
type FilterConfig struct {
	// MinDistanceKm excludes spots closer than this. 0 disables the rule.
	MinDistanceKm float64 `yaml:"min_distance_km" json:"min_distance_km"`

	// MaxDistanceKm excludes spots farther than this. 0 disables the rule.
	MaxDistanceKm float64 `yaml:"max_distance_km" json:"max_distance_km"`

	// Modes, when non-empty, is the set of accepted modes (e.g. FT8, CW).
	Modes []string `yaml:"modes" json:"modes,omitempty"`

	// AllowCallsigns, when non-empty, requires sender or receiver to be listed.
	AllowCallsigns []string `yaml:"allow_callsigns" json:"allow_callsigns,omitempty"`

	// BlockCallsigns excludes a spot when sender or receiver is listed.
	// Blocking wins over allowing.
	BlockCallsigns []string `yaml:"block_callsigns" json:"block_callsigns,omitempty"`

	// AllowCountries, when non-empty, requires the sender or receiver
	// country code to be listed.
	AllowCountries []string `yaml:"allow_countries" json:"allow_countries,omitempty"`

	// BlockCountries excludes a spot when either country code is listed.
	BlockCountries []string `yaml:"block_countries" json:"block_countries,omitempty"`
}

// ForGlobal returns a copy with the callsign and country list rules removed.
// Those rules only apply to personal monitoring.
func (f FilterConfig) ForGlobal() FilterConfig {
	return FilterConfig{
		MinDistanceKm: f.MinDistanceKm,
		MaxDistanceKm: f.MaxDistanceKm,
		Modes:         append([]string(nil), f.Modes...),
	}
}

// Clone returns a deep copy of f.
func (f FilterConfig) Clone() FilterConfig {
	return FilterConfig{
		MinDistanceKm:  f.MinDistanceKm,
		MaxDistanceKm:  f.MaxDistanceKm,
		Modes:          append([]string(nil), f.Modes...),
		AllowCallsigns: append([]string(nil), f.AllowCallsigns...),
		BlockCallsigns: append([]string(nil), f.BlockCallsigns...),
		AllowCountries: append([]string(nil), f.AllowCountries...),
		BlockCountries: append([]string(nil), f.BlockCountries...),
	}
}
