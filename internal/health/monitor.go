package health

import (
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

const (
	// ArrivalLogSize is the number of recent arrival times kept.
	ArrivalLogSize = 1000

	// GapThreshold is the smallest sequence jump treated as a restart, not loss.
	GapThreshold = 100

	// StaleAfter is how long the feed may be silent before it is unhealthy.
	StaleAfter = 60 * time.Second

	// rateWindow is the span counted by MessagesLastMinute.
	rateWindow = time.Minute
)

// Monitor holds feed health state for one session.
type Monitor struct {
	startedAt time.Time

	connected      bool
	connectedAt    time.Time
	reconnectCount int
	lastReason     string

	lastMessageAt time.Time
	totalMessages uint64

	arrivals [ArrivalLogSize]time.Time
	next     int
	filled   bool

	lastSeq    int64
	hasLastSeq bool

	sequenceGaps    uint64
	missedMessages  uint64
	parseErrors     uint64
	incompleteSpots uint64

	subscriptions []string
}

// New returns a disconnected Monitor whose clock starts at now.
func New(now time.Time) *Monitor {
	return &Monitor{startedAt: now}
}

// Connect records a transition to Connected.
func (m *Monitor) Connect(now time.Time) {
	m.connected = true
	m.connectedAt = now
}

// Disconnect records a transition to Disconnected. The reconnect counter only
// moves when the monitor was connected; repeated loss notifications do not
// inflate it.
func (m *Monitor) Disconnect(reason string) {
	if m.connected {
		m.reconnectCount++
	}
	m.connected = false
	m.lastReason = reason
}

// Connected reports the current connection state.
func (m *Monitor) Connected() bool {
	return m.connected
}

// SetSubscriptions replaces the list of active topic subscriptions.
func (m *Monitor) SetSubscriptions(topics []string) {
	m.subscriptions = append([]string(nil), topics...)
}

// Subscriptions returns a copy of the active subscriptions.
func (m *Monitor) Subscriptions() []string {
	return append([]string(nil), m.subscriptions...)
}

// RecordMessage counts one raw message arriving at now.
func (m *Monitor) RecordMessage(now time.Time) {
	m.totalMessages++
	m.lastMessageAt = now
	m.arrivals[m.next] = now
	m.next = (m.next + 1) % ArrivalLogSize
	if m.next == 0 {
		m.filled = true
	}
}

// RecordSequence checks seq against the previous sequence number and returns
// the number of messages counted as missed (0 when no gap was recorded).
func (m *Monitor) RecordSequence(seq int64) int64 {
	var missed int64
	if m.hasLastSeq {
		gap := seq - m.lastSeq - 1
		if gap > 0 && gap < GapThreshold {
			m.sequenceGaps++
			m.missedMessages += uint64(gap)
			missed = gap
		}
	}
	m.lastSeq = seq
	m.hasLastSeq = true
	return missed
}

// RecordParseError counts a payload that could not be decoded.
func (m *Monitor) RecordParseError() {
	m.parseErrors++
}

// RecordIncomplete counts a decoded message that failed validation.
func (m *Monitor) RecordIncomplete() {
	m.incompleteSpots++
}

// Metrics returns a copy of the counters with derived fields computed at now.
func (m *Monitor) Metrics(now time.Time) types.HealthMetrics {
	h := types.HealthMetrics{
		Connected:            m.connected,
		StartedAt:            m.startedAt,
		ConnectedAt:          m.connectedAt,
		ReconnectCount:       m.reconnectCount,
		LastDisconnectReason: m.lastReason,
		LastMessageAt:        m.lastMessageAt,
		TotalMessages:        m.totalMessages,
		MessagesLastMinute:   m.messagesSince(now.Add(-rateWindow)),
		SequenceGaps:         m.sequenceGaps,
		MissedMessages:       m.missedMessages,
		ParseErrors:          m.parseErrors,
		IncompleteSpots:      m.incompleteSpots,
		Subscriptions:        m.Subscriptions(),
	}

	if m.connected {
		h.UptimeSeconds = nonNegative(now.Sub(m.connectedAt)).Seconds()
	}

	latency := now.Sub(m.startedAt)
	if !m.lastMessageAt.IsZero() {
		latency = now.Sub(m.lastMessageAt)
	}
	latency = nonNegative(latency)
	h.FeedLatencySeconds = latency.Seconds()
	h.FeedHealthy = m.connected && !m.lastMessageAt.IsZero() && latency < StaleAfter
	return h
}

// messagesSince counts logged arrivals strictly after cutoff.
func (m *Monitor) messagesSince(cutoff time.Time) int {
	n := m.next
	if m.filled {
		n = ArrivalLogSize
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.arrivals[i].After(cutoff) {
			count++
		}
	}
	return count
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
