package store

import (
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// Defaults applied when New is given non-positive values.
const (
	DefaultTTL      = 15 * time.Minute
	DefaultMaxSpots = 5000
)

// SpotStore is a bounded, TTL-compacted sequence of spots in arrival order.
type SpotStore struct {
	spots []types.Spot
	ttl   time.Duration
	max   int
}

// New creates a SpotStore with the given TTL and size cap.
func New(ttl time.Duration, maxSpots int) *SpotStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSpots <= 0 {
		maxSpots = DefaultMaxSpots
	}
	return &SpotStore{ttl: ttl, max: maxSpots}
}

// TTL returns the retention period.
func (s *SpotStore) TTL() time.Duration {
	return s.ttl
}

// Add appends spot, evicting the oldest entries beyond the size cap.
// It returns the number of entries evicted.
func (s *SpotStore) Add(spot types.Spot) int {
	s.spots = append(s.spots, spot)
	over := len(s.spots) - s.max
	if over <= 0 {
		return 0
	}
	// Shift down instead of reslicing so the backing array does not grow forever.
	n := copy(s.spots, s.spots[over:])
	clear(s.spots[n:])
	s.spots = s.spots[:n]
	return over
}

// Compact removes entries whose timestamp is not after now minus the TTL.
// It returns the number of entries removed.
func (s *SpotStore) Compact(now time.Time) int {
	cutoff := now.Add(-s.ttl)
	kept := s.spots[:0]
	for _, sp := range s.spots {
		if sp.Timestamp.After(cutoff) {
			kept = append(kept, sp)
		}
	}
	removed := len(s.spots) - len(kept)
	clear(s.spots[len(kept):])
	s.spots = kept
	return removed
}

// Window returns a copy of the entries whose timestamp is after now minus window.
func (s *SpotStore) Window(now time.Time, window time.Duration) []types.Spot {
	cutoff := now.Add(-window)
	out := make([]types.Spot, 0, len(s.spots))
	for _, sp := range s.spots {
		if sp.Timestamp.After(cutoff) {
			out = append(out, sp)
		}
	}
	return out
}

// Len returns the number of retained entries.
func (s *SpotStore) Len() int {
	return len(s.spots)
}
