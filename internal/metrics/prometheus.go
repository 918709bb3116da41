package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "companyhub"

// PrometheusRecorder implements Recorder on top of a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	companiesCreated prometheus.Counter
	companiesUpdated prometheus.Counter
	quotaRejections  prometheus.Counter
	notifications    *prometheus.CounterVec
	logins           *prometheus.CounterVec
	tokenRefreshes   *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewPrometheus builds a recorder with its own registry so tests and
// multiple instances never collide on the global default registerer.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &PrometheusRecorder{
		registry: reg,
		companiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "companies_created_total",
			Help:      "Total number of companies created",
		}),
		companiesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "companies_updated_total",
			Help:      "Total number of employee count updates",
		}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "company_quota_rejections_total",
			Help:      "Create attempts rejected by the per-owner quota",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Company creation notifications by outcome",
		}, []string{"status"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"status"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by outcome",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		p.companiesCreated,
		p.companiesUpdated,
		p.quotaRejections,
		p.notifications,
		p.logins,
		p.tokenRefreshes,
		p.httpRequests,
		p.httpDuration,
	)

	return p
}

// Handler serves the registry in Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Gatherer exposes the underlying registry.
func (p *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return p.registry
}

// IncCompanyCreated increments the company created counter.
func (p *PrometheusRecorder) IncCompanyCreated() {
	p.companiesCreated.Inc()
}

// IncCompanyUpdated increments the company updated counter.
func (p *PrometheusRecorder) IncCompanyUpdated() {
	p.companiesUpdated.Inc()
}

// IncQuotaRejected increments the quota rejection counter.
func (p *PrometheusRecorder) IncQuotaRejected() {
	p.quotaRejections.Inc()
}

// IncNotification counts a notification attempt by outcome.
func (p *PrometheusRecorder) IncNotification(status string) {
	p.notifications.WithLabelValues(status).Inc()
}

// IncLogin counts a login attempt by outcome.
func (p *PrometheusRecorder) IncLogin(status string) {
	p.logins.WithLabelValues(status).Inc()
}

// IncTokenRefresh counts a refresh attempt by outcome.
func (p *PrometheusRecorder) IncTokenRefresh(status string) {
	p.tokenRefreshes.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest records an HTTP request keyed by route pattern.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	p.httpRequests.WithLabelValues(method, route, code).Inc()
	p.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}
