// Package store holds the accepted spots of a personal monitoring session.
//
// SpotStore is an append-only sequence with two bounds:
//
//   - a hard cap (default 5000): Add drops the oldest entries once it is reached
//   - a TTL (default 15m): Compact(now) drops entries whose report timestamp is
//     at or before now minus the TTL
//
// Window(now, window) copies the entries newer than now minus window, which is
// the set a statistics cycle reports on. The window is normally no wider than
// the TTL, so the store keeps a little more history than it reports.
//
// SpotStore does no locking of its own; the owning session serialises access.
package store
