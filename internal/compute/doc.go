// Package compute derives WindowedSnapshot statistics and the feed quality
// score.
//
// counts.go provides Counts, a string counter that remembers insertion order.
// Top() returns the key with the highest count; on a tie the key that was
// inserted first wins, so "most active band" is stable for a given arrival
// order. Summary accumulates count/sum/min/max for SNR and distance.
//
// stats.go turns either a copied slice of spots (personal mode) or aggregator
// Totals (global mode) into a snapshot. Both are pure functions of their
// inputs and run outside the session lock. Averages over an empty set are 0,
// spots per minute is count / (window minutes) and 0 for a zero window.
//
// score.go provides the pure Score(HealthMetrics) function that rates the
// feed 0-100: loss(40%) + rejects(30%) + freshness(30%).
// Health state thresholds: Healthy ≥85, Degraded 60-84, Critical <60, Unknown.
package compute
