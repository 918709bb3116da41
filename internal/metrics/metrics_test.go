package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	m := NewInMemory()

	m.IncCompanyCreated()
	m.IncCompanyCreated()
	m.IncCompanyUpdated()
	m.IncQuotaRejected()
	m.IncNotification(StatusSuccess)
	m.IncNotification(StatusFailure)
	m.IncLogin(StatusFailure)
	m.IncTokenRefresh(StatusSuccess)
	m.ObserveHTTPRequest(http.MethodGet, "/", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/", 502, 5*time.Millisecond)

	snap := m.Snapshot()
	if snap.CompaniesCreated != 2 {
		t.Errorf("CompaniesCreated = %d, want 2", snap.CompaniesCreated)
	}
	if snap.CompaniesUpdated != 1 || snap.QuotaRejections != 1 {
		t.Errorf("unexpected company counters: %+v", snap)
	}
	if snap.NotificationsSent != 1 || snap.NotificationsFailed != 1 {
		t.Errorf("unexpected notification counters: %+v", snap)
	}
	if snap.LoginsFailed != 1 || snap.LoginsSucceeded != 0 {
		t.Errorf("unexpected login counters: %+v", snap)
	}
	if snap.RefreshesSucceeded != 1 {
		t.Errorf("RefreshesSucceeded = %d, want 1", snap.RefreshesSucceeded)
	}
	if snap.HTTPRequestCount != 2 || snap.HTTPServerErrorCount != 1 {
		t.Errorf("unexpected http counters: %+v", snap)
	}
	if snap.HTTPRequestTotalNs != (15 * time.Millisecond).Nanoseconds() {
		t.Errorf("HTTPRequestTotalNs = %d", snap.HTTPRequestTotalNs)
	}
}

func TestPrometheusRecorder_Exposition(t *testing.T) {
	p := NewPrometheus()

	p.IncCompanyCreated()
	p.IncLogin(StatusSuccess)
	p.ObserveHTTPRequest(http.MethodPost, "/create/", 201, time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"companyhub_companies_created_total 1",
		`companyhub_logins_total{status="success"} 1`,
		`companyhub_http_requests_total{method="POST",route="/create/",status="201"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected exposition to contain %q", want)
		}
	}
}

func TestNewPrometheus_Independent(t *testing.T) {
	// Two recorders must not panic on duplicate registration.
	_ = NewPrometheus()
	_ = NewPrometheus()
}
