// Package service provides business logic for the application.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/companyhub/companyhub/internal/metrics"
	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository"
)

// MsgEmployeeCountUpdated confirms a successful update.
const MsgEmployeeCountUpdated = "Number of employees updated successfully."

// CompanyPolicy holds the tunable rules of the company service.
type CompanyPolicy struct {
	// Quota is the maximum number of companies one account may own.
	Quota int

	// QuotaStrict locks the owner row so count and insert are atomic
	// against concurrent creates by the same account.
	QuotaStrict bool

	// NotifyTransactional rolls the insert back when notification fails.
	NotifyTransactional bool

	// HideForeignRecords makes update answer NotFound instead of Forbidden
	// for companies owned by someone else.
	HideForeignRecords bool

	DefaultPageSize int
	MaxPageSize     int
}

// DefaultCompanyPolicy returns the baseline rules.
func DefaultCompanyPolicy() CompanyPolicy {
	return CompanyPolicy{
		Quota:           5,
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

// CompanyService mediates every company operation: ownership, quota and
// field allow-list checks all happen here.
type CompanyService struct {
	store     CompanyStore
	notifier  Notifier
	policy    CompanyPolicy
	paginator Paginator
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(store CompanyStore, notifier Notifier, policy CompanyPolicy, recorder metrics.Recorder) *CompanyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if policy.Quota < 1 {
		policy.Quota = DefaultCompanyPolicy().Quota
	}
	return &CompanyService{
		store:     store,
		notifier:  notifier,
		policy:    policy,
		paginator: Paginator{DefaultSize: policy.DefaultPageSize, MaxSize: policy.MaxPageSize},
		metrics:   recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateCompanyInput defines input for creating a company.
// Nil fields were absent from the request.
type CreateCompanyInput struct {
	Name          *string
	Description   *string
	EmployeeCount *int64
}

// CreateCompany validates the payload, enforces the owner's quota, inserts
// the company and notifies the owner.
//
// When notification fails after the insert committed, the created company is
// returned together with a NotificationFailed error carrying its id.
func (s *CompanyService) CreateCompany(ctx context.Context, identity *model.AuthContext, input CreateCompanyInput) (*model.Company, error) {
	if identity == nil {
		return nil, unauthenticated()
	}

	company, err := s.buildCompany(identity.AccountID, input)
	if err != nil {
		return nil, err
	}

	var notifyErr error
	insert := func(ctx context.Context) error {
		if s.policy.QuotaStrict {
			if err := s.store.LockOwner(ctx, identity.AccountID); err != nil {
				return fmt.Errorf("failed to lock owner: %w", err)
			}
		}

		count, err := s.store.CountCompaniesByOwner(ctx, identity.AccountID)
		if err != nil {
			return fmt.Errorf("failed to count companies: %w", err)
		}
		if count >= int64(s.policy.Quota) {
			s.metrics.IncQuotaRejected()
			return &Error{
				Kind:    KindQuotaExceeded,
				Message: fmt.Sprintf("You can only create up to %d companies.", s.policy.Quota),
			}
		}

		if err := s.store.InsertCompany(ctx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}

		if s.policy.NotifyTransactional {
			if notifyErr = s.notify(ctx, identity, company); notifyErr != nil {
				return notifyErr
			}
		}
		return nil
	}

	if s.policy.QuotaStrict || s.policy.NotifyTransactional {
		err = s.store.WithTx(ctx, insert)
	} else {
		err = insert(ctx)
	}
	if err != nil {
		if notifyErr != nil && errors.Is(err, notifyErr) {
			return nil, &Error{Kind: KindNotificationFailed, Message: msgNotifyRolledBack, Err: notifyErr}
		}
		return nil, err
	}

	s.metrics.IncCompanyCreated()

	if !s.policy.NotifyTransactional {
		if err := s.notify(ctx, identity, company); err != nil {
			return company, &Error{
				Kind:     KindNotificationFailed,
				Message:  msgNotificationFailed,
				RecordID: company.ID,
				Err:      err,
			}
		}
	}

	return company, nil
}

func (s *CompanyService) notify(ctx context.Context, identity *model.AuthContext, company *model.Company) error {
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.NotifyCompanyCreated(ctx, identity.Account(), company); err != nil {
		s.metrics.IncNotification(metrics.StatusFailure)
		return err
	}
	s.metrics.IncNotification(metrics.StatusSuccess)
	return nil
}

func (s *CompanyService) buildCompany(ownerID string, input CreateCompanyInput) (*model.Company, error) {
	if input.Name == nil {
		return nil, badRequest("company_name: This field is required.")
	}
	name := strings.TrimSpace(*input.Name)
	if name == "" {
		return nil, badRequest("company_name: This field may not be blank.")
	}
	if utf8.RuneCountInString(name) > model.MaxCompanyNameLength {
		return nil, badRequest(fmt.Sprintf("company_name: Ensure this field has no more than %d characters.", model.MaxCompanyNameLength))
	}

	if input.EmployeeCount == nil {
		return nil, badRequest("number_of_employees: This field is required.")
	}
	if *input.EmployeeCount < 0 {
		return nil, badRequest("number_of_employees: Ensure this value is greater than or equal to 0.")
	}

	var description string
	if input.Description != nil {
		description = *input.Description
	}

	now := s.now()
	return &model.Company{
		ID:            ulid.Make().String(),
		Name:          name,
		Description:   description,
		EmployeeCount: *input.EmployeeCount,
		OwnerID:       ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ListCompaniesInput defines input for listing companies.
type ListCompaniesInput struct {
	Ordering string
	Page     int
	PageSize int
}

// ListCompaniesOutput is one page of the caller's companies.
type ListCompaniesOutput struct {
	Companies    []*model.Company
	Total        int64
	Page         int
	PageSize     int
	Ordering     model.CompanyOrder
	NextPage     *int
	PreviousPage *int
}

// ListCompanies returns a page of the caller's own companies.
func (s *CompanyService) ListCompanies(ctx context.Context, identity *model.AuthContext, input ListCompaniesInput) (*ListCompaniesOutput, error) {
	if identity == nil {
		return nil, unauthenticated()
	}

	order, err := ParseOrdering(input.Ordering)
	if err != nil {
		return nil, err
	}

	page := s.paginator.Resolve(input.Page, input.PageSize)

	companies, total, err := s.store.ListCompaniesByOwner(ctx, identity.AccountID, order, page.Offset(), page.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	if companies == nil {
		companies = []*model.Company{}
	}

	previous, next := page.Neighbors(total)

	return &ListCompaniesOutput{
		Companies:    companies,
		Total:        total,
		Page:         page.Number,
		PageSize:     page.Size,
		Ordering:     order,
		NextPage:     next,
		PreviousPage: previous,
	}, nil
}

// RetrieveCompany returns one of the caller's companies. Companies owned by
// someone else are reported exactly like missing ones.
func (s *CompanyService) RetrieveCompany(ctx context.Context, identity *model.AuthContext, id string) (*model.Company, error) {
	if identity == nil {
		return nil, unauthenticated()
	}

	company, err := s.store.GetCompanyForOwner(ctx, id, identity.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return company, nil
}

// UpdateCompanyOutput confirms an update.
type UpdateCompanyOutput struct {
	Message string
	Company *model.Company
}

// UpdateCompany changes the employee count of a company the caller owns.
// The payload must contain number_of_employees and nothing else.
func (s *CompanyService) UpdateCompany(ctx context.Context, identity *model.AuthContext, id string, payload map[string]json.RawMessage) (*UpdateCompanyOutput, error) {
	if identity == nil {
		return nil, unauthenticated()
	}

	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	if !company.IsOwnedBy(identity.AccountID) {
		if s.policy.HideForeignRecords {
			return nil, notFound()
		}
		return nil, &Error{Kind: KindForbidden, Message: msgForbidden}
	}

	count, err := parseEmployeeCountPayload(payload)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateEmployeeCount(ctx, company.ID, count)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	s.metrics.IncCompanyUpdated()

	return &UpdateCompanyOutput{
		Message: MsgEmployeeCountUpdated,
		Company: updated,
	}, nil
}

// parseEmployeeCountPayload enforces the update allow-list and decodes the
// single permitted value.
func parseEmployeeCountPayload(payload map[string]json.RawMessage) (int64, error) {
	if len(payload) == 0 {
		return 0, badRequest(msgNoData)
	}

	raw, ok := payload[string(model.FieldEmployeeCount)]
	if !ok || len(payload) != 1 {
		return 0, badRequest(msgOnlyEmployeeCount)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return 0, badRequest("number_of_employees: A valid integer is required.")
	}

	num, ok := value.(json.Number)
	if !ok {
		return 0, badRequest("number_of_employees: A valid integer is required.")
	}
	count, err := num.Int64()
	if err != nil {
		return 0, badRequest("number_of_employees: A valid integer is required.")
	}
	if count < 0 {
		return 0, badRequest("number_of_employees: Ensure this value is greater than or equal to 0.")
	}

	return count, nil
}
