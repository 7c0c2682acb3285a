package api

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// DiagnosticHint is one human-readable insight about the feed's health.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// computeDiagnostics derives hints from a snapshot whose Health is current
// as of now. Hints are ordered critical first, then warnings, then info.
func computeDiagnostics(snap types.WindowedSnapshot, now time.Time) []DiagnosticHint {
	var hints []DiagnosticHint
	h := snap.Health

	// ── Disconnected ─────────────────────────────────────────────────────────
	if !h.Connected {
		reason := h.LastDisconnectReason
		if reason == "" {
			reason = "no connection attempt has succeeded yet"
		}
		return []DiagnosticHint{{
			Key:   "disconnected",
			Level: "critical",
			Title: "Broker disconnected",
			Detail: fmt.Sprintf(
				"The monitor is not connected to the PSKReporter broker (%s). "+
					"The client reconnects on its own, so a short outage usually clears up. "+
					"If this persists, check network access to the broker host and port, "+
					"and confirm the transport matches the port you configured.",
				reason,
			),
		}}
	}

	// ── Waiting for the first message ────────────────────────────────────────
	if h.TotalMessages == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "waiting",
			Level: "info",
			Title: "Waiting for spots",
			Detail: fmt.Sprintf(
				"Connected and subscribed to %d topic(s), but no message has arrived yet. "+
					"A quiet callsign can take a few minutes to show up. "+
					"If nothing arrives, check that the callsign is spelled correctly "+
					"and that the station is actually on the air.",
				len(h.Subscriptions),
			),
		})
		return hints
	}

	// ── Stale feed ───────────────────────────────────────────────────────────
	if !h.FeedHealthy {
		v := h.FeedLatencySeconds
		hints = append(hints, DiagnosticHint{
			Key:   "stale",
			Level: "critical",
			Title: "Feed is stale",
			Detail: fmt.Sprintf(
				"The last message arrived %s. The connection is up, "+
					"so either nothing matching your subscription is being reported "+
					"or the broker has stopped forwarding. Band conditions can explain "+
					"a quiet personal feed; a quiet global feed almost always means a broker problem.",
				humanize.RelTime(h.LastMessageAt, now, "ago", "from now"),
			),
			Value: &v,
		})
	}

	// ── Sequence gaps ────────────────────────────────────────────────────────
	if h.SequenceGaps > 0 {
		v := float64(h.MissedMessages)
		level := "info"
		if h.TotalMessages > 0 && float64(h.MissedMessages)/float64(h.TotalMessages+h.MissedMessages) >= 0.05 {
			level = "warning"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "sequence_gaps",
			Level: level,
			Title: fmt.Sprintf("%s missed messages", humanize.Comma(int64(h.MissedMessages))),
			Detail: fmt.Sprintf(
				"The broker's sequence numbers jumped %s time(s), which means about %s messages "+
					"never reached this monitor. Occasional gaps are normal on a busy broker. "+
					"A steady climb points at a slow consumer or a congested link.",
				humanize.Comma(int64(h.SequenceGaps)), humanize.Comma(int64(h.MissedMessages)),
			),
			Value: &v,
		})
	}

	// ── Rejected messages ────────────────────────────────────────────────────
	if rejected := h.ParseErrors + h.IncompleteSpots; rejected > 0 {
		v := float64(rejected)
		level := "info"
		if float64(rejected)/float64(h.TotalMessages) >= 0.10 {
			level = "warning"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "rejected",
			Level: level,
			Title: fmt.Sprintf("%s rejected", humanize.Comma(int64(rejected))),
			Detail: fmt.Sprintf(
				"%s message(s) could not be decoded and %s were missing a required field "+
					"(sender or receiver callsign, frequency, or SNR). "+
					"Rejected messages never reach the statistics.",
				humanize.Comma(int64(h.ParseErrors)), humanize.Comma(int64(h.IncompleteSpots)),
			),
			Value: &v,
		})
	}

	// ── Sampling ─────────────────────────────────────────────────────────────
	if snap.SampleRate > 1 {
		v := float64(snap.SampleRate)
		hints = append(hints, DiagnosticHint{
			Key:   "sampling",
			Level: "info",
			Title: fmt.Sprintf("Sampling 1 in %d", snap.SampleRate),
			Detail: fmt.Sprintf(
				"Only every %s message is processed, so counts cover a sample of the network. "+
					"Sequence gap tracking is paused while sampling "+
					"because skipped messages would look like losses.",
				humanize.Ordinal(snap.SampleRate),
			),
			Value: &v,
		})
	}

	// ── Empty window ─────────────────────────────────────────────────────────
	if snap.TotalSpots == 0 && h.FeedHealthy {
		hints = append(hints, DiagnosticHint{
			Key:   "empty_window",
			Level: "info",
			Title: "No spots in window",
			Detail: "Messages are arriving but none of them survived the filters in the current window. " +
				"Check the band, mode, SNR and distance filters if you expected to see activity.",
		})
	}

	// ── All clear ────────────────────────────────────────────────────────────
	if len(hints) == 0 {
		score := snap.Quality.Score
		hints = append(hints, DiagnosticHint{
			Key:   "healthy",
			Level: "ok",
			Title: "All clear",
			Detail: fmt.Sprintf(
				"The feed is connected and fresh with a quality score of %.0f/100. "+
					"%s spots were counted in the current window, most of them on %s.",
				score, humanize.Comma(int64(snap.TotalSpots)), snap.MostActiveBand,
			),
			Value: &score,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank[hints[i].Level] < levelRank[hints[j].Level]
	})
	return hints
}
