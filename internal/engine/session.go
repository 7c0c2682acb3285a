package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pskrmon/pskrmon/internal/aggregate"
	"github.com/pskrmon/pskrmon/internal/compute"
	"github.com/pskrmon/pskrmon/internal/filter"
	"github.com/pskrmon/pskrmon/internal/health"
	"github.com/pskrmon/pskrmon/internal/parser"
	"github.com/pskrmon/pskrmon/internal/store"
	"github.com/pskrmon/pskrmon/pkg/types"
)

// Defaults applied by New when Options fields are zero.
const (
	DefaultStatsWindow = 15 * time.Minute
	DefaultSpotTTL     = store.DefaultTTL
	DefaultMaxSpots    = store.DefaultMaxSpots
)

// Options configures a Session. They are copied by New and fixed afterwards.
type Options struct {
	Mode      types.MonitorMode
	Callsign  string
	Direction types.Direction

	// StatsWindow is the span each snapshot reports on.
	StatsWindow time.Duration
	// SpotTTL is how long personal sessions retain spots.
	SpotTTL  time.Duration
	MaxSpots int

	// SampleRate processes one raw message in N. Global sessions only.
	SampleRate int

	Filter types.FilterConfig

	// Geodesy computes spot distance and bearings. Nil selects parser.Maidenhead.
	Geodesy parser.Geodesy
	// Clock defaults to SystemClock.
	Clock Clock
}

// Session is the coordinator for one monitoring session.
// All exported methods are safe for concurrent use.
type Session struct {
	mode       types.MonitorMode
	callsign   string
	direction  types.Direction
	window     time.Duration
	sampleRate int
	filter     types.FilterConfig
	parser     *parser.Parser
	clock      Clock

	mu       sync.Mutex
	health   *health.Monitor
	strategy strategy
	sampler  *aggregate.Sampler

	latest    atomic.Pointer[types.WindowedSnapshot]
	computing atomic.Bool
	stopped   atomic.Bool

	obsMu     sync.RWMutex
	observers []func(types.WindowedSnapshot)
}

// New validates opts and returns a Session with an initial empty snapshot.
func New(opts Options) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = types.ModePersonal
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("engine: unknown mode %q", opts.Mode)
	}
	if opts.StatsWindow <= 0 {
		opts.StatsWindow = DefaultStatsWindow
	}
	if opts.SpotTTL <= 0 {
		opts.SpotTTL = DefaultSpotTTL
	}
	if opts.MaxSpots <= 0 {
		opts.MaxSpots = DefaultMaxSpots
	}
	if opts.SampleRate < 1 {
		opts.SampleRate = 1
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}

	now := opts.Clock.Now()
	s := &Session{
		mode:     opts.Mode,
		callsign: strings.ToUpper(strings.TrimSpace(opts.Callsign)),
		window:   opts.StatsWindow,
		parser:   parser.New(opts.Geodesy),
		clock:    opts.Clock,
		health:   health.New(now),
	}

	switch opts.Mode {
	case types.ModePersonal:
		if s.callsign == "" {
			return nil, errors.New("engine: personal mode requires a callsign")
		}
		if opts.Direction == "" {
			opts.Direction = types.DirectionRX
		}
		if !opts.Direction.Valid() {
			return nil, fmt.Errorf("engine: unknown direction %q", opts.Direction)
		}
		s.direction = opts.Direction
		s.filter = opts.Filter.Clone()
		s.sampleRate = 1
		s.strategy = &personal{
			store:     store.New(opts.SpotTTL, opts.MaxSpots),
			window:    opts.StatsWindow,
			direction: opts.Direction,
			callsign:  s.callsign,
		}
	case types.ModeGlobal:
		s.filter = opts.Filter.ForGlobal()
		s.sampleRate = opts.SampleRate
		s.strategy = &global{
			agg:    aggregate.New(opts.StatsWindow, now),
			window: opts.StatsWindow,
		}
	}
	s.sampler = aggregate.NewSampler(s.sampleRate)

	initial := s.strategy.capture(now)()
	s.decorate(&initial, s.health.Metrics(now), now)
	s.latest.Store(&initial)
	return s, nil
}

// --- producer side ----------------------------------------------------------

// Ingest processes one raw feed payload. It never blocks on I/O and never
// fails: undecodable and incomplete payloads are counted in the health view.
func (s *Session) Ingest(payload []byte) {
	now := s.clock.Now()

	s.mu.Lock()
	s.health.RecordMessage(now)
	take := s.sampler.Take()
	s.mu.Unlock()
	if !take {
		return
	}

	raw, err := parser.Decode(payload)
	if err != nil {
		s.mu.Lock()
		s.health.RecordParseError()
		s.mu.Unlock()
		slog.Debug("engine: dropped undecodable payload", "err", err)
		return
	}

	spot, buildErr := s.parser.Build(raw, now)
	include := buildErr == nil && filter.ShouldInclude(spot, s.filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Gaps are only meaningful when every message is processed.
	if seq, ok := raw.Sequence(); ok && !s.sampler.Active() {
		if missed := s.health.RecordSequence(seq); missed > 0 {
			slog.Debug("engine: sequence gap", "seq", seq, "missed", missed)
		}
	}
	if buildErr != nil {
		s.health.RecordIncomplete()
		slog.Debug("engine: dropped incomplete spot", "err", buildErr)
		return
	}
	if include {
		s.strategy.fold(spot)
	}
}

// MarkConnected records that the feed transport is connected.
func (s *Session) MarkConnected() {
	s.mu.Lock()
	s.health.Connect(s.clock.Now())
	s.mu.Unlock()
	slog.Info("engine: feed connected", "mode", s.mode, "callsign", s.callsign)
}

// MarkDisconnected records that the feed transport lost its connection.
func (s *Session) MarkDisconnected(reason string) {
	s.mu.Lock()
	s.health.Disconnect(reason)
	s.mu.Unlock()
	slog.Warn("engine: feed disconnected", "reason", reason)
}

// SetSubscriptions records the topic filters the transport subscribed to.
func (s *Session) SetSubscriptions(topics []string) {
	s.mu.Lock()
	s.health.SetSubscriptions(topics)
	s.mu.Unlock()
}

// --- consumer side ----------------------------------------------------------

// Recompute computes and publishes a fresh snapshot. It returns false without
// doing anything when another Recompute is already running.
func (s *Session) Recompute() bool {
	if !s.computing.CompareAndSwap(false, true) {
		slog.Debug("engine: recompute already in progress, skipping")
		return false
	}
	defer s.computing.Store(false)

	now := s.clock.Now()
	s.mu.Lock()
	calc := s.strategy.capture(now)
	h := s.health.Metrics(now)
	s.mu.Unlock()

	snap := calc()
	s.decorate(&snap, h, now)
	s.latest.Store(&snap)

	slog.Debug("engine: snapshot computed",
		"mode", snap.Mode,
		"total_spots", snap.TotalSpots,
		"spots_per_minute", snap.SpotsPerMinute,
		"feed_healthy", h.FeedHealthy,
	)

	s.obsMu.RLock()
	observers := s.observers
	s.obsMu.RUnlock()
	for _, fn := range observers {
		fn(snap.Clone())
	}
	return true
}

// Run recomputes immediately and then every interval until ctx is cancelled
// or Stop is called. A cycle already in flight when Stop is called finishes.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	slog.Info("engine: statistics loop started", "interval", interval, "window", s.window)
	s.cycle()
	for {
		select {
		case <-ctx.Done():
			slog.Info("engine: statistics loop stopped")
			return
		case <-t.C:
			if s.stopped.Load() {
				slog.Info("engine: statistics loop stopped")
				return
			}
			s.cycle()
		}
	}
}

// Stop signals Run to exit before its next cycle.
func (s *Session) Stop() {
	s.stopped.Store(true)
}

func (s *Session) cycle() {
	if s.stopped.Load() {
		return
	}
	s.Recompute()
}

// OnSnapshot registers fn to be called with every newly published snapshot.
// fn runs on the recompute goroutine; a Recompute called from fn is skipped.
func (s *Session) OnSnapshot(fn func(types.WindowedSnapshot)) {
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

// --- read API ---------------------------------------------------------------

// Snapshot returns a copy of the most recently published snapshot.
func (s *Session) Snapshot() types.WindowedSnapshot {
	return s.latest.Load().Clone()
}

// Health returns the live health view.
func (s *Session) Health() types.HealthMetrics {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health.Metrics(now)
}

// Connected reports whether the feed transport is connected.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health.Connected()
}

// FeedHealthy reports whether the feed is connected and delivering messages.
func (s *Session) FeedHealthy() bool {
	return s.Health().FeedHealthy
}

// Subscriptions returns the active topic subscriptions.
func (s *Session) Subscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health.Subscriptions()
}

// Mode returns the session's monitor mode.
func (s *Session) Mode() types.MonitorMode { return s.mode }

// Callsign returns the monitored callsign, empty in global mode.
func (s *Session) Callsign() string { return s.callsign }

// Direction returns the monitored direction, empty in global mode.
func (s *Session) Direction() types.Direction { return s.direction }

// decorate stamps the session-level fields onto a computed snapshot.
func (s *Session) decorate(snap *types.WindowedSnapshot, h types.HealthMetrics, now time.Time) {
	snap.Callsign = s.callsign
	snap.Direction = s.direction
	snap.GeneratedAt = now
	snap.SampleRate = s.sampleRate
	snap.Health = h
	snap.Quality = compute.Score(h)
}
