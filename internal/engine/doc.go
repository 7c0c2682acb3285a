// Package engine owns one monitoring session: the single point where raw feed
// messages come in and windowed snapshots come out.
//
// A Session is built once from Options (mode, callsign, direction, windows,
// sampling, FilterConfig) and never reconfigured. Its mutable state (health
// monitor, spot store or global aggregator, sampler) sits behind one mutex:
//
//   - Ingest, called by the feed's delivery goroutine, takes the lock to count
//     the arrival, decodes and filters outside it, then takes it again to
//     count errors and fold the spot.
//   - Recompute takes the lock only to compact and copy, computes the
//     snapshot outside it and publishes it atomically. Snapshot never waits
//     on a running computation.
//
// The mode picks a strategy at construction: personal sessions keep spots in
// a store.SpotStore, global sessions fold them into an aggregate.Aggregator.
//
// Run drives Recompute on a ticker until the context is cancelled or Stop is
// called. Cycles never overlap: a Recompute that finds another in flight
// returns false without doing anything.
package engine
