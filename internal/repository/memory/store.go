// Package memory provides an in-process store with the same contract as the
// Postgres repository. It backs unit tests and local tooling.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository"
)

// Store keeps accounts and companies in maps guarded by a mutex.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*model.Account
	companies map[string]*model.Company
	// seq preserves insertion order independently of timestamps.
	seq     map[string]int64
	nextSeq int64

	// txMu serializes transactions so a rollback restores a consistent snapshot.
	txMu sync.Mutex
	now  func() time.Time

	// Err, when set, is returned by every company call. Tests use it to
	// simulate storage failures.
	Err error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts:  make(map[string]*model.Account),
		companies: make(map[string]*model.Company),
		seq:       make(map[string]int64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount adds an account. Usernames and non-empty emails are unique.
func (s *Store) CreateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Username == account.Username ||
			(account.Email != "" && existing.Email == account.Email) {
			return repository.ErrAccountExists
		}
	}
	if _, ok := s.accounts[account.ID]; ok {
		return repository.ErrAccountExists
	}

	stored := *account
	s.accounts[account.ID] = &stored
	return nil
}

// UpdateAccountPassword replaces an account's password hash.
func (s *Store) UpdateAccountPassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.PasswordHash = passwordHash
	return nil
}

// GetAccountByID retrieves an account by its ID.
func (s *Store) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

// FindAccountByEmail retrieves an account by exact email match.
func (s *Store) FindAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	return s.findAccount(func(a *model.Account) bool { return email != "" && a.Email == email })
}

// FindAccountByUsername retrieves an account by exact username match.
func (s *Store) FindAccountByUsername(_ context.Context, username string) (*model.Account, error) {
	return s.findAccount(func(a *model.Account) bool { return a.Username == username })
}

func (s *Store) findAccount(match func(*model.Account) bool) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if match(account) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

// LockOwner verifies the owner exists. Transactions are already serialized.
func (s *Store) LockOwner(ctx context.Context, ownerID string) error {
	_, err := s.GetAccountByID(ctx, ownerID)
	return err
}

// InsertCompany stores a copy of company.
func (s *Store) InsertCompany(_ context.Context, company *model.Company) error {
	if s.Err != nil {
		return s.Err
	}
	if company.EmployeeCount < 0 || company.Name == "" {
		return repository.ErrInvalidCompanyValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[company.ID]; ok {
		return fmt.Errorf("duplicate company id %q", company.ID)
	}

	stored := *company
	s.companies[company.ID] = &stored
	s.nextSeq++
	s.seq[company.ID] = s.nextSeq
	return nil
}

// GetCompany retrieves a company by ID regardless of owner.
func (s *Store) GetCompany(_ context.Context, id string) (*model.Company, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	copied := *company
	return &copied, nil
}

// GetCompanyForOwner retrieves a company by ID only if ownerID owns it.
func (s *Store) GetCompanyForOwner(ctx context.Context, id, ownerID string) (*model.Company, error) {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != ownerID {
		return nil, repository.ErrCompanyNotFound
	}
	return company, nil
}

// CountCompaniesByOwner returns how many companies ownerID owns.
func (s *Store) CountCompaniesByOwner(_ context.Context, ownerID string) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, company := range s.companies {
		if company.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

// ExistingCompanyNames returns the subset of names that ownerID already uses, sorted.
func (s *Store) ExistingCompanyNames(_ context.Context, ownerID string, names []string) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := []string{}
	for _, company := range s.companies {
		if company.OwnerID == ownerID && wanted[company.Name] {
			found = append(found, company.Name)
			delete(wanted, company.Name)
		}
	}
	sort.Strings(found)
	return found, nil
}

// ListCompaniesByOwner returns one page of ownerID's companies and the total.
func (s *Store) ListCompaniesByOwner(_ context.Context, ownerID string, order model.CompanyOrder, offset, limit int) ([]*model.Company, int64, error) {
	if s.Err != nil {
		return nil, 0, s.Err
	}

	s.mu.RLock()
	owned := make([]*model.Company, 0)
	for _, company := range s.companies {
		if company.OwnerID == ownerID {
			copied := *company
			owned = append(owned, &copied)
		}
	}
	seq := make(map[string]int64, len(owned))
	for _, c := range owned {
		seq[c.ID] = s.seq[c.ID]
	}
	s.mu.RUnlock()

	less, err := lessFunc(order)
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if c := less(a, b); c != 0 {
			return c < 0
		}
		return seq[a.ID] < seq[b.ID]
	})

	total := int64(len(owned))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(owned) {
		return []*model.Company{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

// lessFunc returns a three-way comparator for order. Descending flips the
// comparison of the field only; ties keep insertion order.
func lessFunc(order model.CompanyOrder) (func(a, b *model.Company) int, error) {
	var cmp func(a, b *model.Company) int
	switch order.Field {
	case "":
		return func(a, b *model.Company) int { return 0 }, nil
	case model.FieldName:
		cmp = func(a, b *model.Company) int { return strings.Compare(a.Name, b.Name) }
	case model.FieldDescription:
		cmp = func(a, b *model.Company) int { return strings.Compare(a.Description, b.Description) }
	case model.FieldEmployeeCount:
		cmp = func(a, b *model.Company) int {
			switch {
			case a.EmployeeCount < b.EmployeeCount:
				return -1
			case a.EmployeeCount > b.EmployeeCount:
				return 1
			}
			return 0
		}
	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidOrderField, order.Field)
	}

	if order.Descending {
		return func(a, b *model.Company) int { return -cmp(a, b) }, nil
	}
	return cmp, nil
}

// UpdateEmployeeCount sets the employee count and returns the updated company.
func (s *Store) UpdateEmployeeCount(_ context.Context, id string, count int64) (*model.Company, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if count < 0 {
		return nil, repository.ErrInvalidCompanyValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	company, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	company.EmployeeCount = count
	company.UpdatedAt = s.now()

	copied := *company
	return &copied, nil
}

// WithTx runs fn and restores the company set if fn fails or panics.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot, seq, nextSeq := s.snapshot()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot, seq, nextSeq)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot, seq, nextSeq)
		}
	}()

	return fn(ctx)
}

func (s *Store) snapshot() (map[string]*model.Company, map[string]int64, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	companies := make(map[string]*model.Company, len(s.companies))
	for id, c := range s.companies {
		copied := *c
		companies[id] = &copied
	}
	seq := make(map[string]int64, len(s.seq))
	for id, n := range s.seq {
		seq[id] = n
	}
	return companies, seq, s.nextSeq
}

func (s *Store) restore(companies map[string]*model.Company, seq map[string]int64, nextSeq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.companies = companies
	s.seq = seq
	s.nextSeq = nextSeq
}

// Companies returns a copy of every stored company, for assertions.
func (s *Store) Companies() []*model.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Company, 0, len(s.companies))
	for _, c := range s.companies {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out
}
