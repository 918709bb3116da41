package service

import (
	"context"

	"github.com/companyhub/companyhub/internal/model"
)

// CompanyStore is the persistence surface the company service needs.
// Not-found results are reported with repository.ErrCompanyNotFound.
type CompanyStore interface {
	InsertCompany(ctx context.Context, company *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetCompanyForOwner(ctx context.Context, id, ownerID string) (*model.Company, error)
	ListCompaniesByOwner(ctx context.Context, ownerID string, order model.CompanyOrder, offset, limit int) ([]*model.Company, int64, error)
	CountCompaniesByOwner(ctx context.Context, ownerID string) (int64, error)
	UpdateEmployeeCount(ctx context.Context, id string, count int64) (*model.Company, error)

	// LockOwner takes a row lock on the owner's account for the rest of the
	// surrounding transaction. It is only meaningful inside WithTx.
	LockOwner(ctx context.Context, ownerID string) error

	// WithTx runs fn in a transaction. Store calls made with the ctx passed to
	// fn join it. A non-nil error from fn rolls the transaction back.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountStore looks accounts up by their unique keys.
// Not-found results are reported with repository.ErrAccountNotFound.
type AccountStore interface {
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	FindAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
}

// Notifier delivers the company-created side effect synchronously.
type Notifier interface {
	NotifyCompanyCreated(ctx context.Context, account *model.Account, company *model.Company) error
}
