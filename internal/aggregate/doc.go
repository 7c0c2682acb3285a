// Package aggregate keeps count-only rolling totals for global monitoring.
//
// Retaining every spot of the network-wide feed is not feasible, so the
// Aggregator folds each accepted spot into ordered band and mode counters, a
// set of distinct callsigns (sender and receiver), a set of country codes,
// running SNR and distance summaries and a processed-message counter.
// Rotate(now) clears everything together once the stats window has elapsed
// since the last reset; no individual entry has its own lifetime.
//
// Sampler implements the optional 1-in-N message sampling applied to raw
// arrivals before they are parsed.
//
// Neither type locks; the owning session serialises access.
package aggregate
