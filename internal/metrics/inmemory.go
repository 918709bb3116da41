package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CompaniesCreated     uint64
	CompaniesUpdated     uint64
	QuotaRejections      uint64
	NotificationsSent    uint64
	NotificationsFailed  uint64
	LoginsSucceeded      uint64
	LoginsFailed         uint64
	RefreshesSucceeded   uint64
	RefreshesFailed      uint64
	HTTPRequestCount     uint64
	HTTPRequestTotalNs   int64
	HTTPServerErrorCount uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	companiesCreated     uint64
	companiesUpdated     uint64
	quotaRejections      uint64
	notificationsSent    uint64
	notificationsFailed  uint64
	loginsSucceeded      uint64
	loginsFailed         uint64
	refreshesSucceeded   uint64
	refreshesFailed      uint64
	httpRequestCount     uint64
	httpRequestTotalNs   int64
	httpServerErrorCount uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CompaniesCreated:     atomic.LoadUint64(&m.companiesCreated),
		CompaniesUpdated:     atomic.LoadUint64(&m.companiesUpdated),
		QuotaRejections:      atomic.LoadUint64(&m.quotaRejections),
		NotificationsSent:    atomic.LoadUint64(&m.notificationsSent),
		NotificationsFailed:  atomic.LoadUint64(&m.notificationsFailed),
		LoginsSucceeded:      atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:         atomic.LoadUint64(&m.loginsFailed),
		RefreshesSucceeded:   atomic.LoadUint64(&m.refreshesSucceeded),
		RefreshesFailed:      atomic.LoadUint64(&m.refreshesFailed),
		HTTPRequestCount:     atomic.LoadUint64(&m.httpRequestCount),
		HTTPRequestTotalNs:   atomic.LoadInt64(&m.httpRequestTotalNs),
		HTTPServerErrorCount: atomic.LoadUint64(&m.httpServerErrorCount),
	}
}

// IncCompanyCreated increments the company created counter.
func (m *InMemoryRecorder) IncCompanyCreated() {
	atomic.AddUint64(&m.companiesCreated, 1)
}

// IncCompanyUpdated increments the company updated counter.
func (m *InMemoryRecorder) IncCompanyUpdated() {
	atomic.AddUint64(&m.companiesUpdated, 1)
}

// IncQuotaRejected increments the quota rejection counter.
func (m *InMemoryRecorder) IncQuotaRejected() {
	atomic.AddUint64(&m.quotaRejections, 1)
}

// IncNotification counts a notification attempt by outcome.
func (m *InMemoryRecorder) IncNotification(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.notificationsSent, 1)
		return
	}
	atomic.AddUint64(&m.notificationsFailed, 1)
}

// IncLogin counts a login attempt by outcome.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncTokenRefresh counts a refresh attempt by outcome.
func (m *InMemoryRecorder) IncTokenRefresh(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.refreshesSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.refreshesFailed, 1)
}

// ObserveHTTPRequest records request count and latency.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequestCount, 1)
	atomic.AddInt64(&m.httpRequestTotalNs, duration.Nanoseconds())
	if status >= 500 {
		atomic.AddUint64(&m.httpServerErrorCount, 1)
	}
}
