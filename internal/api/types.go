package api

import (
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Mode       types.MonitorMode   `json:"mode"`
	Callsign   string              `json:"callsign,omitempty"`
	Direction  types.Direction     `json:"direction,omitempty"`
	Health     types.HealthMetrics `json:"health"`
	Quality    types.Quality       `json:"quality"`
	AlertCount int                 `json:"alert_count"`
}

// SubscriptionsResponse is the payload for GET /api/v1/subscriptions.
type SubscriptionsResponse struct {
	Connected bool     `json:"connected"`
	Topics    []string `json:"topics"`
}

// DiagnosticsResponse is the payload for GET /api/v1/diagnostics.
type DiagnosticsResponse struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Hints       []DiagnosticHint `json:"hints"`
}

// HistoryEntry is one archived snapshot in GET /api/v1/history.
type HistoryEntry struct {
	TakenAt        time.Time              `json:"taken_at"`
	TotalSpots     int                    `json:"total_spots"`
	SpotsPerMinute float64                `json:"spots_per_minute"`
	FeedHealthy    bool                   `json:"feed_healthy"`
	Snapshot       types.WindowedSnapshot `json:"snapshot"`
}

type errorResponse struct {
	Error string `json:"error"`
}
