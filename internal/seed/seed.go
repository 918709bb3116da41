// Package seed loads demo data: one account and a fixed set of companies it owns.
// Seeding is idempotent; rerunning it only fills in what is missing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository"
)

//go:embed companies.yaml
var defaultFixture []byte

// Fixture is the demo data set.
type Fixture struct {
	Companies []FixtureCompany `yaml:"companies"`
}

// FixtureCompany is one company entry of a Fixture.
type FixtureCompany struct {
	Name          string `yaml:"company_name"`
	Description   string `yaml:"description"`
	EmployeeCount int64  `yaml:"number_of_employees"`
}

// DemoAccount describes the account that owns the seeded companies.
type DemoAccount struct {
	Username string
	Email    string
	Password string
}

// Store is the persistence surface seeding needs.
type Store interface {
	FindAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	ExistingCompanyNames(ctx context.Context, ownerID string, names []string) ([]string, error)
	InsertCompany(ctx context.Context, company *model.Company) error
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher func(password string) (string, error)

// Result reports what a seeding run changed.
type Result struct {
	AccountCreated bool
	Created        []string
	Existing       []string
}

// Seeder applies a Fixture for a DemoAccount.
type Seeder struct {
	store   Store
	hash    PasswordHasher
	fixture Fixture
	logger  *slog.Logger
	now     func() time.Time
}

// ParseFixture decodes YAML fixture data.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse fixture: %w", err)
	}
	for i, c := range f.Companies {
		if c.Name == "" {
			return Fixture{}, fmt.Errorf("fixture company %d: company_name is required", i)
		}
		if c.EmployeeCount < 0 {
			return Fixture{}, fmt.Errorf("fixture company %q: number_of_employees must be >= 0", c.Name)
		}
	}
	return f, nil
}

// DefaultFixture returns the embedded demo data set.
func DefaultFixture() Fixture {
	f, err := ParseFixture(defaultFixture)
	if err != nil {
		panic(err)
	}
	return f
}

// New creates a Seeder for the given fixture.
func New(store Store, hash PasswordHasher, fixture Fixture, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:   store,
		hash:    hash,
		fixture: fixture,
		logger:  logger,
		now:     time.Now,
	}
}

// Run gets or creates the demo account and each fixture company, all in one
// transaction. An existing account keeps its password; companies are matched
// by (owner, name).
func (s *Seeder) Run(ctx context.Context, demo DemoAccount) (*Result, error) {
	if demo.Username == "" {
		return nil, errors.New("demo username is required")
	}

	result := &Result{}
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		account, created, err := s.ensureAccount(ctx, demo)
		if err != nil {
			return err
		}
		result.AccountCreated = created

		wanted := make([]string, 0, len(s.fixture.Companies))
		for _, fc := range s.fixture.Companies {
			wanted = append(wanted, fc.Name)
		}
		existing, err := s.store.ExistingCompanyNames(ctx, account.ID, wanted)
		if err != nil {
			return fmt.Errorf("failed to look up companies: %w", err)
		}
		names := make(map[string]bool, len(existing))
		for _, name := range existing {
			names[name] = true
		}

		for _, fc := range s.fixture.Companies {
			if names[fc.Name] {
				result.Existing = append(result.Existing, fc.Name)
				continue
			}
			now := s.now().UTC()
			company := &model.Company{
				ID:            ulid.Make().String(),
				Name:          fc.Name,
				Description:   fc.Description,
				EmployeeCount: fc.EmployeeCount,
				OwnerID:       account.ID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.store.InsertCompany(ctx, company); err != nil {
				return fmt.Errorf("failed to create company %q: %w", fc.Name, err)
			}
			names[fc.Name] = true
			result.Created = append(result.Created, fc.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("seed complete",
		"username", demo.Username,
		"account_created", result.AccountCreated,
		"companies_created", len(result.Created),
		"companies_existing", len(result.Existing),
	)
	return result, nil
}

func (s *Seeder) ensureAccount(ctx context.Context, demo DemoAccount) (*model.Account, bool, error) {
	account, err := s.store.FindAccountByUsername(ctx, demo.Username)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, false, fmt.Errorf("failed to find account: %w", err)
	}

	if demo.Password == "" {
		return nil, false, errors.New("demo password is required to create the account")
	}
	hash, err := s.hash(demo.Password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	account = &model.Account{
		ID:           ulid.Make().String(),
		Username:     demo.Username,
		Email:        demo.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}
	return account, true, nil
}
