// Package api implements the HTTP surface of pskrmon.
//
// New(opts) returns an http.Handler that serves:
//
//	GET /api/v1/snapshot       latest windowed snapshot
//	GET /api/v1/health         live feed health plus quality score
//	GET /api/v1/subscriptions  active topic filters
//	GET /api/v1/diagnostics    human-readable hints about the feed
//	GET /api/v1/alerts         firing and recently resolved alerts
//	GET /api/v1/history        archived snapshots, newest first (?limit=N)
//	GET /metrics               Prometheus text exposition
//	    /ws                    WebSocket stream (when configured)
//
// All JSON endpoints respond with Content-Type: application/json and return
// 405 for non-GET methods. The optional auth middleware wraps /api/ and /ws;
// /metrics stays open for scrapers.
package api
