package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/companyhub/companyhub/internal/model"
)

// Common errors for account repository operations.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("username or email already exists")
)

const accountColumns = `id, username, COALESCE(email, ''), password_hash, created_at`

// CreateAccount inserts a new account. An empty email is stored as NULL.
func (r *Repository) CreateAccount(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
	`

	_, err := r.q(ctx).Exec(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	return r.getAccount(ctx, query, id)
}

// FindAccountByEmail retrieves an account by exact email match.
func (r *Repository) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	if email == "" {
		return nil, ErrAccountNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = $1`
	return r.getAccount(ctx, query, email)
}

// FindAccountByUsername retrieves an account by exact username match.
func (r *Repository) FindAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE username = $1`
	return r.getAccount(ctx, query, username)
}

// UpdateAccountPassword replaces an account's password hash.
func (r *Repository) UpdateAccountPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.q(ctx).Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// LockOwner takes a row lock on the account for the rest of the surrounding
// transaction, serializing concurrent creates by the same owner.
func (r *Repository) LockOwner(ctx context.Context, ownerID string) error {
	var id string
	err := r.q(ctx).QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, ownerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to lock account: %w", err)
	}
	return nil
}

func (r *Repository) getAccount(ctx context.Context, query string, arg string) (*model.Account, error) {
	var account model.Account
	err := r.q(ctx).QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}
