// Package probe serves the standard gRPC health service for pskrmon.
//
// The service "pskrmon.Feed" reports SERVING while the feed is healthy and
// NOT_SERVING once it goes stale or disconnects. The empty service name
// always reports SERVING while the process is up, so orchestrators can tell
// a dead process from a quiet feed.
package probe
