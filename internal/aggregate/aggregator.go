package aggregate

import (
	"time"

	"github.com/pskrmon/pskrmon/internal/compute"
	"github.com/pskrmon/pskrmon/pkg/types"
)

// Aggregator holds the rolling global totals for one stats window.
type Aggregator struct {
	window    time.Duration
	lastReset time.Time

	processed uint64
	bands     compute.Counts
	modes     compute.Counts
	stations  map[string]struct{}
	countries map[string]struct{}
	snr       compute.Summary
	distance  compute.Summary
	lastSpot  time.Time
}

// New returns an empty Aggregator whose first window starts at now.
func New(window time.Duration, now time.Time) *Aggregator {
	a := &Aggregator{window: window}
	a.reset(now)
	return a
}

// Fold adds one accepted spot to the totals.
func (a *Aggregator) Fold(spot types.Spot) {
	a.processed++
	a.bands.Add(spot.Band)
	a.modes.Add(spot.Mode)
	a.stations[spot.Sender] = struct{}{}
	a.stations[spot.Receiver] = struct{}{}
	for _, c := range []string{spot.SenderCountry, spot.ReceiverCountry} {
		if c != "" {
			a.countries[c] = struct{}{}
		}
	}
	a.snr.Add(float64(spot.SNR))
	if spot.DistanceKm > 0 {
		a.distance.Add(spot.DistanceKm)
	}
	if spot.Timestamp.After(a.lastSpot) {
		a.lastSpot = spot.Timestamp
	}
}

// Totals returns a copy of the current totals.
func (a *Aggregator) Totals() compute.Totals {
	return compute.Totals{
		Processed:   a.processed,
		WindowStart: a.lastReset,
		Bands:       a.bands.Clone(),
		Modes:       a.modes.Clone(),
		Stations:    len(a.stations),
		Countries:   len(a.countries),
		SNR:         a.snr,
		Distance:    a.distance,
		LastSpotAt:  a.lastSpot,
	}
}

// Processed returns the number of spots folded since the last reset.
func (a *Aggregator) Processed() uint64 {
	return a.processed
}

// Rotate clears all totals when more than the window has passed since the
// last reset. It reports whether a reset happened.
func (a *Aggregator) Rotate(now time.Time) bool {
	if now.Sub(a.lastReset) <= a.window {
		return false
	}
	a.reset(now)
	return true
}

func (a *Aggregator) reset(now time.Time) {
	a.lastReset = now
	a.processed = 0
	a.bands.Reset()
	a.modes.Reset()
	a.stations = make(map[string]struct{})
	a.countries = make(map[string]struct{})
	a.snr = compute.Summary{}
	a.distance = compute.Summary{}
	a.lastSpot = time.Time{}
}
