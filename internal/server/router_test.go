package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/metrics"
	"github.com/companyhub/companyhub/internal/middleware"
	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository/memory"
	"github.com/companyhub/companyhub/internal/service"
)

type plainVerifier struct{}

func (plainVerifier) VerifyPassword(account *model.Account, password string) bool {
	return account.PasswordHash != "" && account.PasswordHash == password
}

type nopNotifier struct{}

func (nopNotifier) NotifyCompanyCreated(context.Context, *model.Account, *model.Company) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, loginLimiter *middleware.LoginLimiter, opts ...func(*Deps)) (http.Handler, *memory.Store) {
	t.Helper()

	logger := discardLogger()
	store := memory.New()
	recorder := metrics.NewPrometheus()

	issuer, err := auth.NewTokenIssuer("router-test-secret", "companyhub", 5*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	account := &model.Account{
		ID:           "acct-alice",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "alice-pw",
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	deps := Deps{
		Logger:             logger,
		Companies:          service.NewCompanyService(store, nopNotifier{}, service.DefaultCompanyPolicy(), recorder),
		Auth:               service.NewAuthService(service.NewCredentialResolver(store, plainVerifier{}), issuer, recorder),
		BaseURL:            "http://api.test",
		Verifier:           issuer,
		Accounts:           store,
		Observer:           recorder,
		MetricsHandler:     recorder.Handler(),
		LoginLimiter:       loginLimiter,
		MaxRequestBodySize: 1 << 20,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewRouter(deps), store
}

func serve(h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := serve(h, http.MethodPost, "/api/token/", "", map[string]string{
		"username_or_email": "alice",
		"password":          "alice-pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var pair struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}
	return pair.Access
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}
}

func TestRouter_FallbackHandlers(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"unknown path", http.MethodGet, "/no/such/path", http.StatusNotFound},
		{"wrong method on create", http.MethodDelete, "/create/", http.StatusMethodNotAllowed},
		{"wrong method on token", http.MethodGet, "/api/token/", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.path, "", nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON error body, got Content-Type %q", ct)
			}
		})
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	for _, path := range []string{"/", "/api/protected/", "/some-id/"} {
		rec := serve(router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestRouter_CompanyLifecycle(t *testing.T) {
	router, store := newTestRouter(t, nil)
	token := login(t, router)

	rec := serve(router, http.MethodPost, "/create/", token, map[string]any{
		"company_name":        "Acme",
		"description":         "Widgets",
		"number_of_employees": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rec = serve(router, http.MethodGet, "/"+created.ID+"/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve: status %d", rec.Code)
	}

	rec = serve(router, http.MethodPatch, "/"+created.ID+"/update/", token, map[string]any{
		"number_of_employees": 42,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}

	companies := store.Companies()
	if len(companies) != 1 || companies[0].EmployeeCount != 42 {
		t.Fatalf("unexpected stored companies: %+v", companies)
	}

	rec = serve(router, http.MethodGet, "/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("expected count 1, got %d", list.Count)
	}
}

func TestRouter_MetricsUseRoutePatterns(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	token := login(t, router)

	serve(router, http.MethodGet, "/01HZZZZZZZZZZZZZZZZZZZZZZZ/", token, nil)

	rec := serve(router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `route="/{id}/"`) {
		t.Errorf("expected templated route label in metrics output")
	}
	if strings.Contains(body, "01HZZZZZZZZZZZZZZZZZZZZZZZ") {
		t.Errorf("raw path leaked into metric labels")
	}
	if !strings.Contains(body, "companyhub_logins_total") {
		t.Errorf("expected login counter in metrics output")
	}
}

func TestRouter_LoginLimiter(t *testing.T) {
	limiter := middleware.NewLoginLimiter(discardLogger(), 0.001, 1)
	router, _ := newTestRouter(t, limiter)

	body := map[string]string{"username_or_email": "alice", "password": "wrong"}

	first := serve(router, http.MethodPost, "/api/token/", "", body)
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first attempt should not be throttled")
	}

	second := serve(router, http.MethodPost, "/api/token/", "", body)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func loginFrom(h http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	buf, _ := json.Marshal(map[string]string{"username_or_email": "alice", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/token/", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_LoginLimiterIgnoresForwardedHeaders(t *testing.T) {
	limiter := middleware.NewLoginLimiter(discardLogger(), 0.001, 1)
	router, _ := newTestRouter(t, limiter)

	first := loginFrom(router, "203.0.113.7:40000", map[string]string{"X-Forwarded-For": "198.51.100.1"})
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first attempt should not be throttled")
	}

	// Same socket peer with a different header value shares the bucket.
	second := loginFrom(router, "203.0.113.7:40001", map[string]string{
		"X-Forwarded-For": "198.51.100.2",
		"X-Real-IP":       "198.51.100.3",
	})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 with rotated forwarding headers, got %d", second.Code)
	}
}

func TestRouter_LoginLimiterTrustedProxy(t *testing.T) {
	limiter := middleware.NewLoginLimiter(discardLogger(), 0.001, 1)
	router, _ := newTestRouter(t, limiter, func(d *Deps) { d.TrustProxyHeaders = true })

	const proxy = "10.0.0.1:50000"
	if rec := loginFrom(router, proxy, map[string]string{"X-Real-IP": "198.51.100.1"}); rec.Code == http.StatusTooManyRequests {
		t.Fatal("first client should not be throttled")
	}
	if rec := loginFrom(router, proxy, map[string]string{"X-Real-IP": "198.51.100.2"}); rec.Code == http.StatusTooManyRequests {
		t.Fatal("second client behind the proxy should have its own bucket")
	}
	if rec := loginFrom(router, proxy, map[string]string{"X-Real-IP": "198.51.100.1"}); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeated client, got %d", rec.Code)
	}
}
