package alerts

import (
	"strconv"
	"strings"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// evalCondition evaluates a rule condition string against a snapshot.
//
// Supported expressions (field operator value):
//
//	feed_healthy == false
//	connected == false
//	messages_last_minute < 10
//	feed_latency > 120
//	sequence_gaps > 5
//	missed_messages > 100
//	parse_errors > 0
//	incomplete_spots > 50
//	spots_per_minute < 1
//	total_spots == 0
//	unique_stations < 3
//	quality_score < 60
//	state == critical
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, snap types.WindowedSnapshot) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	switch field {
	case "state":
		switch op {
		case "==":
			return snap.Quality.State == rhs, snap.Quality.Score
		case "!=":
			return snap.Quality.State != rhs, snap.Quality.Score
		}
		return false, 0

	case "feed_healthy", "connected":
		want, err := strconv.ParseBool(rhs)
		if err != nil {
			return false, 0
		}
		v := snap.Health.FeedHealthy
		if field == "connected" {
			v = snap.Health.Connected
		}
		switch op {
		case "==":
			return v == want, boolValue(v)
		case "!=":
			return v != want, boolValue(v)
		}
		return false, 0

	default:
		v, ok := numericField(field, snap)
		if !ok {
			return false, 0
		}
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false, 0
		}
		return compareFloat(v, op, threshold), v
	}
}

// numericField maps a field name to its value in the snapshot.
func numericField(field string, snap types.WindowedSnapshot) (float64, bool) {
	h := snap.Health
	switch field {
	case "messages_last_minute":
		return float64(h.MessagesLastMinute), true
	case "feed_latency":
		return h.FeedLatencySeconds, true
	case "sequence_gaps":
		return float64(h.SequenceGaps), true
	case "missed_messages":
		return float64(h.MissedMessages), true
	case "parse_errors":
		return float64(h.ParseErrors), true
	case "incomplete_spots":
		return float64(h.IncompleteSpots), true
	case "reconnect_count":
		return float64(h.ReconnectCount), true
	case "spots_per_minute":
		return snap.SpotsPerMinute, true
	case "total_spots":
		return float64(snap.TotalSpots), true
	case "unique_stations":
		return float64(snap.UniqueStations), true
	case "quality_score":
		return snap.Quality.Score, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
