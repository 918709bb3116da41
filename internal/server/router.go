package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/companyhub/companyhub/internal/handler"
	"github.com/companyhub/companyhub/internal/middleware"
	"github.com/companyhub/companyhub/internal/service"
)

// Deps collects everything the router wires into handlers and middleware.
// Optional fields may be left nil.
type Deps struct {
	Logger *slog.Logger

	Companies *service.CompanyService
	Auth      *service.AuthService
	BaseURL   string

	Verifier     middleware.TokenVerifier
	Accounts     middleware.AccountLookup
	AccountCache middleware.AccountCache // optional

	Database handler.HealthChecker // optional
	Cache    handler.HealthChecker // optional

	Observer       middleware.HTTPObserver // optional
	MetricsHandler http.Handler            // optional, served on /metrics

	RateLimit    middleware.RateLimitConfig
	LoginLimiter *middleware.LoginLimiter // optional

	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For/X-Real-IP.
	// Leave it off unless a proxy in front strips client-supplied values.
	TrustProxyHeaders bool

	Security           middleware.SecurityConfig
	CORS               middleware.CORSConfig
	MaxRequestBodySize int64
}

// NewRouter builds the full HTTP surface. The returned handler is wrapped
// with otelhttp so every request runs inside a server span.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New()
	healthHandler := handler.NewHealthHandler(d.Database, d.Cache)
	authHandler := handler.NewAuthHandler(d.Auth, logger)
	companyHandler := handler.NewCompanyHandler(d.Companies, logger, d.BaseURL)

	r := chi.NewRouter()

	// Global middleware
	if d.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	if d.Observer != nil {
		r.Use(middleware.Metrics(d.Observer))
	}
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(d.Security))
	r.Use(middleware.CORS(d.CORS))
	if d.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(d.MaxRequestBodySize))
	}

	// Operational endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	// Token endpoints, throttled per client IP
	r.Group(func(r chi.Router) {
		if d.LoginLimiter != nil {
			r.Use(d.LoginLimiter.Middleware)
		}
		r.Post("/api/token/", authHandler.Token)
		r.Post("/api/token/refresh/", authHandler.Refresh)
	})

	rateLimitCfg := d.RateLimit
	if rateLimitCfg.Logger == nil {
		rateLimitCfg.Logger = logger
	}

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:   logger,
			Verifier: d.Verifier,
			Accounts: d.Accounts,
			Cache:    d.AccountCache,
		}))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))

		r.Get("/api/protected/", authHandler.Protected)

		r.Get("/", companyHandler.List)
		r.Post("/create/", companyHandler.Create)
		r.Get("/{id}/", companyHandler.Retrieve)
		r.Patch("/{id}/update/", companyHandler.Update)
		r.Put("/{id}/update/", companyHandler.Update)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return otelhttp.NewHandler(r, "companyhub",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}
