package engine

import (
	"log/slog"
	"time"

	"github.com/pskrmon/pskrmon/internal/aggregate"
	"github.com/pskrmon/pskrmon/internal/compute"
	"github.com/pskrmon/pskrmon/internal/store"
	"github.com/pskrmon/pskrmon/pkg/types"
)

// strategy is the mode-specific retention behaviour of a Session.
// fold and capture run under the session lock; the function returned by
// capture runs outside it.
type strategy interface {
	fold(spot types.Spot)
	capture(now time.Time) func() types.WindowedSnapshot
}

// personal retains every accepted spot in a TTL store.
type personal struct {
	store     *store.SpotStore
	window    time.Duration
	direction types.Direction
	callsign  string
}

func (p *personal) fold(spot types.Spot) {
	if n := p.store.Add(spot); n > 0 {
		slog.Debug("engine: spot store full, evicted oldest", "count", n)
	}
}

func (p *personal) capture(now time.Time) func() types.WindowedSnapshot {
	if n := p.store.Compact(now); n > 0 {
		slog.Debug("engine: compacted expired spots", "count", n, "retained", p.store.Len())
	}
	spots := p.store.Window(now, p.window)
	return func() types.WindowedSnapshot {
		return compute.Personal(spots, p.window, p.direction, p.callsign)
	}
}

// global folds accepted spots into count-only totals.
type global struct {
	agg    *aggregate.Aggregator
	window time.Duration
}

func (g *global) fold(spot types.Spot) {
	g.agg.Fold(spot)
}

func (g *global) capture(now time.Time) func() types.WindowedSnapshot {
	totals := g.agg.Totals()
	if g.agg.Rotate(now) {
		slog.Debug("engine: global totals reset", "processed", totals.Processed)
	}
	return func() types.WindowedSnapshot {
		return compute.Global(totals, g.window)
	}
}
