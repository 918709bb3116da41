package service

import (
	"context"
	"errors"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/metrics"
	"github.com/companyhub/companyhub/internal/model"
)

// TokenIssuer mints bearer tokens for resolved accounts.
type TokenIssuer interface {
	IssuePair(account *model.Account) (*auth.TokenPair, error)
	Refresh(refreshToken string) (string, error)
}

// AuthService logs accounts in and refreshes their access tokens.
type AuthService struct {
	resolver *CredentialResolver
	issuer   TokenIssuer
	metrics  metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(resolver *CredentialResolver, issuer TokenIssuer, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		resolver: resolver,
		issuer:   issuer,
		metrics:  recorder,
	}
}

// Login resolves the identifier and password to an account and issues a token pair.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*auth.TokenPair, error) {
	account, err := s.resolver.Resolve(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.IncLogin(metrics.StatusFailure)
		}
		return nil, err
	}

	pair, err := s.issuer.IssuePair(account)
	if err != nil {
		return nil, err
	}

	s.metrics.IncLogin(metrics.StatusSuccess)
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		s.metrics.IncTokenRefresh(metrics.StatusFailure)
		return "", badRequest("refresh: This field is required.")
	}

	access, err := s.issuer.Refresh(refreshToken)
	if err != nil {
		s.metrics.IncTokenRefresh(metrics.StatusFailure)
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrWrongTokenType) {
			return "", &Error{Kind: KindInvalidToken, Message: msgInvalidToken, Err: err}
		}
		return "", err
	}

	s.metrics.IncTokenRefresh(metrics.StatusSuccess)
	return access, nil
}
