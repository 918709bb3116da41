package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/metrics"
	"github.com/companyhub/companyhub/internal/middleware"
	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository/memory"
	"github.com/companyhub/companyhub/internal/service"
)

const testBaseURL = "http://api.test"

// plainVerifier compares PasswordHash with the password verbatim.
type plainVerifier struct{}

func (plainVerifier) VerifyPassword(account *model.Account, password string) bool {
	return account.PasswordHash != "" && account.PasswordHash == password
}

type stubNotifier struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (n *stubNotifier) NotifyCompanyCreated(context.Context, *model.Account, *model.Company) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	return n.err
}

type testAPI struct {
	t        *testing.T
	store    *memory.Store
	issuer   *auth.TokenIssuer
	notifier *stubNotifier
	recorder *metrics.InMemoryRecorder
	router   http.Handler
}

func newTestAPI(t *testing.T, policy service.CompanyPolicy) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	notifier := &stubNotifier{}
	recorder := metrics.NewInMemory()

	issuer, err := auth.NewTokenIssuer("handler-test-secret", "companyhub", 5*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}

	companySvc := service.NewCompanyService(store, notifier, policy, recorder)
	authSvc := service.NewAuthService(service.NewCredentialResolver(store, plainVerifier{}), issuer, recorder)

	companies := NewCompanyHandler(companySvc, logger, testBaseURL)
	tokens := NewAuthHandler(authSvc, logger)
	fallback := New()

	r := chi.NewRouter()
	r.NotFound(fallback.NotFound)
	r.MethodNotAllowed(fallback.MethodNotAllowed)

	r.Post("/api/token/", tokens.Token)
	r.Post("/api/token/refresh/", tokens.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{Logger: logger, Verifier: issuer, Accounts: store}))
		r.Get("/api/protected/", tokens.Protected)
		r.Post("/create/", companies.Create)
		r.Get("/", companies.List)
		r.Get("/{id}/", companies.Retrieve)
		r.Patch("/{id}/update/", companies.Update)
		r.Put("/{id}/update/", companies.Update)
	})

	return &testAPI{
		t:        t,
		store:    store,
		issuer:   issuer,
		notifier: notifier,
		recorder: recorder,
		router:   r,
	}
}

// addAccount creates an account whose password equals "<username>-pw".
func (a *testAPI) addAccount(username string) *model.Account {
	a.t.Helper()
	account := &model.Account{
		ID:           "acct-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: username + "-pw",
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.CreateAccount(context.Background(), account); err != nil {
		a.t.Fatalf("CreateAccount failed: %v", err)
	}
	return account
}

func (a *testAPI) tokenFor(account *model.Account) string {
	a.t.Helper()
	pair, err := a.issuer.IssuePair(account)
	if err != nil {
		a.t.Fatalf("IssuePair failed: %v", err)
	}
	return pair.Access
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
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
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createCompany(token, name string, employees int64) map[string]any {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/create/", token, map[string]any{
		"company_name":        name,
		"description":         name + " description",
		"number_of_employees": employees,
	})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("create %q: status %d body %s", name, rec.Code, rec.Body.String())
	}
	return decodeBody[map[string]any](a.t, rec)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

var errRelayDown = errors.New("relay down")
