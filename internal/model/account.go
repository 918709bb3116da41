// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// Account represents a registered user that can own companies.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	AccountID string
	Username  string
	Email     string
	TokenID   string
}

// NewAuthContext builds the request identity for an account.
func NewAuthContext(account *Account, tokenID string) *AuthContext {
	return &AuthContext{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		TokenID:   tokenID,
	}
}

// Account returns the identity as an Account value without credentials.
func (a *AuthContext) Account() *Account {
	return &Account{
		ID:       a.AccountID,
		Username: a.Username,
		Email:    a.Email,
	}
}

// CachedAccount represents account data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type CachedAccount struct {
	Username  string `redis:"username"`
	Email     string `redis:"email"`
	CreatedAt string `redis:"created_at"` // Unix timestamp
}

// ToAccount converts CachedAccount to the Account domain model.
// The password hash is never cached, so the result carries none.
func (c *CachedAccount) ToAccount(id string) *Account {
	account := &Account{
		ID:       id,
		Username: c.Username,
		Email:    c.Email,
	}

	if c.CreatedAt != "" {
		if ts, err := strconv.ParseInt(c.CreatedAt, 10, 64); err == nil {
			account.CreatedAt = time.Unix(ts, 0).UTC()
		}
	}

	return account
}

// ToCachedAccount converts Account to CachedAccount.
func (a *Account) ToCachedAccount() *CachedAccount {
	return &CachedAccount{
		Username:  a.Username,
		Email:     a.Email,
		CreatedAt: strconv.FormatInt(a.CreatedAt.Unix(), 10),
	}
}
