package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/companyhub/companyhub/internal/model"
)

// Common errors for company repository operations.
var (
	ErrCompanyNotFound     = errors.New("company not found")
	ErrInvalidOrderField   = errors.New("invalid order field")
	ErrInvalidCompanyValue = errors.New("company violates a table constraint")
)

// companyColumns maps orderable fields to their column names.
var companyColumns = map[model.CompanyField]string{
	model.FieldName:          "company_name",
	model.FieldDescription:   "description",
	model.FieldEmployeeCount: "number_of_employees",
}

const companySelect = `
	SELECT id, company_name, description, number_of_employees, owner_id, created_at, updated_at
	FROM companies
`

// InsertCompany inserts a new company.
func (r *Repository) InsertCompany(ctx context.Context, company *model.Company) error {
	query := `
		INSERT INTO companies (id, company_name, description, number_of_employees, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q(ctx).Exec(ctx, query,
		company.ID,
		company.Name,
		company.Description,
		company.EmployeeCount,
		company.OwnerID,
		company.CreatedAt,
		company.UpdatedAt,
	)

	if err != nil {
		if isCheckViolation(err) {
			return ErrInvalidCompanyValue
		}
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

// GetCompany retrieves a company by ID regardless of owner.
func (r *Repository) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := r.q(ctx).QueryRow(ctx, companySelect+` WHERE id = $1`, id)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// GetCompanyForOwner retrieves a company by ID only if ownerID owns it.
func (r *Repository) GetCompanyForOwner(ctx context.Context, id, ownerID string) (*model.Company, error) {
	row := r.q(ctx).QueryRow(ctx, companySelect+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company for owner: %w", err)
	}
	return company, nil
}

// CountCompaniesByOwner returns how many companies ownerID owns.
func (r *Repository) CountCompaniesByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM companies WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return count, nil
}

// ExistingCompanyNames returns the subset of names that ownerID already uses.
func (r *Repository) ExistingCompanyNames(ctx context.Context, ownerID string, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}

	query := `
		SELECT COALESCE(array_agg(company_name ORDER BY company_name), '{}')
		FROM companies
		WHERE owner_id = $1 AND company_name = ANY($2)
	`

	var found []string
	if err := r.q(ctx).QueryRow(ctx, query, ownerID, pq.Array(names)).Scan(pq.Array(&found)); err != nil {
		return nil, fmt.Errorf("failed to look up company names: %w", err)
	}
	return found, nil
}

// ListCompaniesByOwner returns one page of ownerID's companies and the total
// number of companies they own. Ties and the zero order fall back to
// insertion order.
func (r *Repository) ListCompaniesByOwner(ctx context.Context, ownerID string, order model.CompanyOrder, offset, limit int) ([]*model.Company, int64, error) {
	orderBy, err := orderClause(order)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.CountCompaniesByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	query := companySelect + ` WHERE owner_id = $1 ORDER BY ` + orderBy + ` LIMIT $2 OFFSET $3`

	rows, err := r.q(ctx).Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]*model.Company, 0, limit)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate companies: %w", err)
	}

	return companies, total, nil
}

// UpdateEmployeeCount sets the employee count and returns the updated row.
func (r *Repository) UpdateEmployeeCount(ctx context.Context, id string, count int64) (*model.Company, error) {
	query := `
		UPDATE companies
		SET number_of_employees = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, company_name, description, number_of_employees, owner_id, created_at, updated_at
	`

	company, err := scanCompany(r.q(ctx).QueryRow(ctx, query, id, count))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		if isCheckViolation(err) {
			return nil, ErrInvalidCompanyValue
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return company, nil
}

// orderClause builds a safe ORDER BY list. Field names are checked against
// the allow-list and quoted before they reach SQL.
func orderClause(order model.CompanyOrder) (string, error) {
	const insertion = "created_at ASC, id ASC"
	if order.IsZero() {
		return insertion, nil
	}

	column, ok := companyColumns[order.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderField, order.Field)
	}

	direction := "ASC"
	if order.Descending {
		direction = "DESC"
	}
	return pq.QuoteIdentifier(column) + " " + direction + ", " + insertion, nil
}

func scanCompany(row pgx.Row) (*model.Company, error) {
	var company model.Company
	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Description,
		&company.EmployeeCount,
		&company.OwnerID,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &company, nil
}
