package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCompanyCreated is a no-op.
func (n *NoopRecorder) IncCompanyCreated() {}

// IncCompanyUpdated is a no-op.
func (n *NoopRecorder) IncCompanyUpdated() {}

// IncQuotaRejected is a no-op.
func (n *NoopRecorder) IncQuotaRejected() {}

// IncNotification is a no-op.
func (n *NoopRecorder) IncNotification(status string) {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncTokenRefresh is a no-op.
func (n *NoopRecorder) IncTokenRefresh(status string) {}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
