// Package types defines the shared Go types passed between the pskrmon
// packages: the parsed Spot, the per-session FilterConfig, the HealthMetrics
// view of the feed and the WindowedSnapshot produced by each statistics cycle.
//
// These are plain value types. A WindowedSnapshot is never mutated after it is
// published; callers that need to hold on to one across goroutines should use
// Clone so maps and slices are not shared.
package types
