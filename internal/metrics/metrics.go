// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by the counters below.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Company metrics
	IncCompanyCreated()
	IncCompanyUpdated()
	IncQuotaRejected()
	IncNotification(status string) // status: "success" or "failure"

	// Auth metrics
	IncLogin(status string)        // status: "success" or "failure"
	IncTokenRefresh(status string) // status: "success" or "failure"

	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
