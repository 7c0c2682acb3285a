package compute

import (
	"github.com/pskrmon/pskrmon/internal/health"
	"github.com/pskrmon/pskrmon/pkg/types"
)

// Weight constants for the quality score formula.
// They must sum to 1.0.
const (
	weightLoss      = 0.40
	weightReject    = 0.30
	weightFreshness = 0.30
)

// State constants returned by the score calculator.
const (
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateCritical = "critical"
	StateUnknown  = "unknown"
)

// Thresholds that map a score to a health state.
const (
	ThresholdHealthy  = 85.0
	ThresholdDegraded = 60.0
)

// Score rates the feed from its health counters.
//
//	score = (
//	    (1 - missed/(total+missed))            * 0.40  +
//	    (1 - (parse+incomplete)/total)         * 0.30  +
//	    (1 - latency/60s)                      * 0.30
//	) * 100
//
// A feed that has never delivered a message is "unknown"; a disconnected feed
// scores 0 and is "critical".
func Score(h types.HealthMetrics) types.Quality {
	if h.TotalMessages == 0 {
		return types.Quality{State: StateUnknown}
	}
	if !h.Connected {
		return types.Quality{State: StateCritical}
	}

	total := float64(h.TotalMessages)
	missed := float64(h.MissedMessages)
	rejected := float64(h.ParseErrors + h.IncompleteSpots)

	lossFactor := 1 - clamp01(missed/(total+missed))
	rejectFactor := 1 - clamp01(rejected/total)
	freshnessFactor := 1 - clamp01(h.FeedLatencySeconds/health.StaleAfter.Seconds())

	score := (lossFactor*weightLoss +
		rejectFactor*weightReject +
		freshnessFactor*weightFreshness) * 100

	return types.Quality{
		Score:           round(score, 1),
		State:           stateFromScore(score),
		LossFactor:      lossFactor,
		RejectFactor:    rejectFactor,
		FreshnessFactor: freshnessFactor,
	}
}

// stateFromScore maps a numeric score to a named health state.
func stateFromScore(score float64) string {
	switch {
	case score >= ThresholdHealthy:
		return StateHealthy
	case score >= ThresholdDegraded:
		return StateDegraded
	default:
		return StateCritical
	}
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
