// Package health tracks the liveness and data quality of the spot feed.
//
// Monitor is a small state machine over the connection
// (Disconnected → Connected → Disconnected …) plus message counters:
//
//   - every raw message counts, even one that later fails to parse
//   - arrival times go into a ring of the last 1000 messages, scanned on read
//     to produce messages-in-the-last-minute
//   - sequence numbers are checked for gaps; a gap of 1-99 counts as loss,
//     larger jumps are treated as a feed restart and ignored
//
// Uptime, latency since the last message and the healthy flag are derived in
// Metrics(now) and never stored. The feed is healthy while connected, once at
// least one message has arrived and for less than a minute after the latest.
//
// Monitor does no locking of its own; the owning session serialises access.
package health
