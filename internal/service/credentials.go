package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository"
)

// PasswordVerifier checks a plaintext password against an account's stored
// credential. Called with an account that has no hash, it must still spend
// the cost of a real verification and report false.
type PasswordVerifier interface {
	VerifyPassword(account *model.Account, password string) bool
}

// CredentialResolver maps a login identifier and password to exactly one account.
type CredentialResolver struct {
	accounts AccountStore
	verifier PasswordVerifier
}

// NewCredentialResolver creates a new CredentialResolver.
func NewCredentialResolver(accounts AccountStore, verifier PasswordVerifier) *CredentialResolver {
	return &CredentialResolver{
		accounts: accounts,
		verifier: verifier,
	}
}

// Resolve looks the identifier up by email when it contains '@', then by
// username. Unknown accounts and wrong passwords yield the same error.
func (r *CredentialResolver) Resolve(ctx context.Context, identifier, password string) (*model.Account, error) {
	account, err := r.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if account == nil {
		// Equalize cost with the wrong-password path.
		_ = r.verifier.VerifyPassword(&model.Account{}, password)
		return nil, invalidCredentials()
	}

	if !r.verifier.VerifyPassword(account, password) {
		return nil, invalidCredentials()
	}

	return account, nil
}

func (r *CredentialResolver) lookup(ctx context.Context, identifier string) (*model.Account, error) {
	if identifier == "" {
		return nil, nil
	}

	if strings.Contains(identifier, "@") {
		account, err := r.accounts.FindAccountByEmail(ctx, identifier)
		switch {
		case err == nil:
			return account, nil
		case !errors.Is(err, repository.ErrAccountNotFound):
			return nil, fmt.Errorf("failed to find account by email: %w", err)
		}
	}

	account, err := r.accounts.FindAccountByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}
	return account, nil
}
