package types

import "time"

// Quality is the composite feed quality rating attached to every snapshot.
type Quality struct {
	// Score is in the range 0-100.
	Score float64 `json:"score"`
	// State is one of: healthy, degraded, critical, unknown.
	State string `json:"state"`

	LossFactor      float64 `json:"loss_factor"`
	RejectFactor    float64 `json:"reject_factor"`
	FreshnessFactor float64 `json:"freshness_factor"`
}

// BandModeStats summarises the window's spots on one band in one mode.
type BandModeStats struct {
	Count          int     `json:"count"`
	AvgSNR         float64 `json:"avg_snr"`
	AvgDistanceKm  float64 `json:"avg_distance_km"`
	UniqueStations int     `json:"unique_stations"`
}

// PairStats summarises the window's spots between one sender and receiver.
type PairStats struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Count     int       `json:"count"`
	AvgSNR    float64   `json:"avg_snr"`
	MinSNR    int       `json:"min_snr"`
	MaxSNR    int       `json:"max_snr"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// WindowedSnapshot is the read-only result of one statistics cycle.
type WindowedSnapshot struct {
	Mode          MonitorMode `json:"mode"`
	Callsign      string      `json:"callsign,omitempty"`
	Direction     Direction   `json:"direction,omitempty"`
	GeneratedAt   time.Time   `json:"generated_at"`
	WindowSeconds float64     `json:"window_seconds"`
	// SampleRate is N when only every Nth raw message is processed.
	SampleRate int `json:"sample_rate"`

	TotalSpots int `json:"total_spots"`
	// ProcessedMessages is the number of sampled messages folded into the
	// global totals since the last reset. Zero in personal mode.
	ProcessedMessages uint64 `json:"processed_messages"`
	UniqueStations    int    `json:"unique_stations"`
	UniqueCountries   int    `json:"unique_countries"`

	BandCounts     map[string]int `json:"band_counts"`
	ModeCounts     map[string]int `json:"mode_counts"`
	MostActiveBand string         `json:"most_active_band"`
	MostActiveMode string         `json:"most_active_mode"`
	ActiveBands    int            `json:"active_bands"`

	AvgSNR float64 `json:"avg_snr"`
	MinSNR int     `json:"min_snr"`
	MaxSNR int     `json:"max_snr"`

	AvgDistanceKm float64 `json:"avg_distance_km"`
	MinDistanceKm float64 `json:"min_distance_km"`
	MaxDistanceKm float64 `json:"max_distance_km"`

	SpotsPerMinute float64   `json:"spots_per_minute"`
	LastSpotAt     time.Time `json:"last_spot_at"`

	// Breakdown, BandCountries, ModeStations and TopPairs are personal mode only.
	Breakdown     map[string]map[string]BandModeStats `json:"breakdown,omitempty"`
	BandCountries map[string]int                      `json:"band_countries,omitempty"`
	ModeStations  map[string]int                      `json:"mode_stations,omitempty"`
	TopPairs      []PairStats                         `json:"top_pairs,omitempty"`

	Health  HealthMetrics `json:"health"`
	Quality Quality       `json:"quality"`
}

// Clone returns a deep copy of s.
func (s WindowedSnapshot) Clone() WindowedSnapshot {
	s.BandCounts = cloneCounts(s.BandCounts)
	s.ModeCounts = cloneCounts(s.ModeCounts)
	s.Health = s.Health.Clone()
	if s.Breakdown != nil {
		bd := make(map[string]map[string]BandModeStats, len(s.Breakdown))
		for band, row := range s.Breakdown {
			cp := make(map[string]BandModeStats, len(row))
			for mode, v := range row {
				cp[mode] = v
			}
			bd[band] = cp
		}
		s.Breakdown = bd
	}
	if s.BandCountries != nil {
		s.BandCountries = cloneCounts(s.BandCountries)
	}
	if s.ModeStations != nil {
		s.ModeStations = cloneCounts(s.ModeStations)
	}
	if s.TopPairs != nil {
		s.TopPairs = append([]PairStats(nil), s.TopPairs...)
	}
	return s
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
