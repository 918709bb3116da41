package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository/memory"
)

// recordingNotifier captures notifications and can be told to fail.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []*model.Company
	to    []string
	err   error
}

func (n *recordingNotifier) NotifyCompanyCreated(_ context.Context, account *model.Account, company *model.Company) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, company)
	n.to = append(n.to, account.Email)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// plainVerifier compares PasswordHash with the password verbatim.
type plainVerifier struct {
	calls int
}

func (v *plainVerifier) VerifyPassword(account *model.Account, password string) bool {
	v.calls++
	return account.PasswordHash != "" && account.PasswordHash == password
}

var errSMTPDown = errors.New("smtp down")

func newIdentity(t *testing.T, store *memory.Store, username string) *model.AuthContext {
	t.Helper()
	account := &model.Account{
		ID:           "acct-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: username + "-pw",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.CreateAccount(context.Background(), account))
	return model.NewAuthContext(account, "jti-"+username)
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func validInput(name string, employees int64) CreateCompanyInput {
	return CreateCompanyInput{
		Name:          strPtr(name),
		Description:   strPtr(name + " does things"),
		EmployeeCount: int64Ptr(employees),
	}
}
