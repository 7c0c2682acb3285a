// Package filter decides whether a parsed spot is kept by a session.
//
// ShouldInclude is a pure function of the spot and the FilterConfig: no state,
// no side effects, safe to call from any goroutine. Rules are checked in order
// and the first failing rule excludes the spot:
//
//  1. distance below MinDistanceKm (when > 0)
//  2. distance above MaxDistanceKm (when > 0)
//  3. mode not in Modes (when non-empty)
//  4. callsign or country block lists, then allow lists
//
// Callsign and country comparisons are case-insensitive. A callsign matches a
// list entry either as written or by its base callsign, so "W1AW" in a list
// also matches "EA8/W1AW/P".
package filter
