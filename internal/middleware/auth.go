package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository"
)

// Auth failure messages.
const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgInvalidToken  = "Given token not valid for any token type"
	msgUnknownUser   = "User not found"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// AccountLookup loads accounts by ID.
type AccountLookup interface {
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
}

// AccountCache is an optional read-through cache in front of AccountLookup.
type AccountCache interface {
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	SetAccount(ctx context.Context, account *model.Account) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	Accounts AccountLookup
	// Cache may be nil.
	Cache AccountCache
}

// Auth returns a middleware that authenticates requests carrying a bearer
// access token and injects the account identity into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, present := extractBearerToken(r)
			if !present {
				writeAuthError(w, "UNAUTHENTICATED", msgNoCredentials)
				return
			}

			claims, err := cfg.Verifier.VerifyAccess(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeAuthError(w, "INVALID_TOKEN", msgInvalidToken)
				return
			}

			account, cacheHit, err := loadAccount(ctx, cfg, claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrAccountNotFound) {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", "unknown_account"),
						slog.String("account_id", claims.Subject),
						slog.String("request_id", GetRequestID(ctx)),
					)
					writeAuthError(w, "INVALID_TOKEN", msgUnknownUser)
					return
				}
				cfg.Logger.Error("database error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("account_id", account.ID),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(ctx)),
			)

			authCtx := model.NewAuthContext(account, claims.ID)
			r = r.WithContext(auth.ContextWithAuth(ctx, authCtx))
			recordIdentity(r)
			next.ServeHTTP(w, r)
		})
	}
}

// loadAccount resolves the token subject, consulting the cache first.
// Cache failures degrade to a store lookup.
func loadAccount(ctx context.Context, cfg AuthConfig, id string) (*model.Account, bool, error) {
	if cfg.Cache != nil {
		if account, err := cfg.Cache.GetAccount(ctx, id); err == nil {
			return account, true, nil
		}
	}

	account, err := cfg.Accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.SetAccount(ctx, account); err != nil {
			cfg.Logger.Warn("failed to cache account",
				slog.String("account_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return account, false, nil
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
// present is false only when no Authorization header was sent at all.
func extractBearerToken(r *http.Request) (token string, present bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func writeAuthError(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeError(w, http.StatusUnauthorized, code, message)
}
