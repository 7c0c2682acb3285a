package types

import "time"

// HealthMetrics is a point-in-time view of the feed's health.
// UptimeSeconds, FeedLatencySeconds and FeedHealthy are derived when the view
// is taken, never stored.
type HealthMetrics struct {
	Connected            bool      `json:"connected"`
	StartedAt            time.Time `json:"started_at"`
	ConnectedAt          time.Time `json:"connected_at"`
	ReconnectCount       int       `json:"reconnect_count"`
	LastDisconnectReason string    `json:"last_disconnect_reason,omitempty"`
	LastMessageAt        time.Time `json:"last_message_at"`

	TotalMessages      uint64 `json:"total_messages"`
	MessagesLastMinute int    `json:"messages_last_minute"`
	SequenceGaps       uint64 `json:"sequence_gaps"`
	MissedMessages     uint64 `json:"missed_messages"`
	ParseErrors        uint64 `json:"parse_errors"`
	IncompleteSpots    uint64 `json:"incomplete_spots"`

	Subscriptions []string `json:"subscriptions"`

	UptimeSeconds      float64 `json:"uptime_seconds"`
	FeedLatencySeconds float64 `json:"feed_latency_seconds"`
	FeedHealthy        bool    `json:"feed_healthy"`
}

// Clone returns a copy of h that shares no slices with it.
func (h HealthMetrics) Clone() HealthMetrics {
	h.Subscriptions = append([]string(nil), h.Subscriptions...)
	return h
}
