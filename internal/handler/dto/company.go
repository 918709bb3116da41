// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/companyhub/companyhub/internal/model"
)

// LoginRequest is the body of POST /api/token/.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// TokenPairResponse is returned by a successful login.
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshRequest is the body of POST /api/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// AccessTokenResponse is returned by a successful refresh.
type AccessTokenResponse struct {
	Access string `json:"access"`
}

// MessageResponse carries a single human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateCompanyRequest represents the request body for creating a company.
// Pointer fields distinguish absent keys from zero values.
type CreateCompanyRequest struct {
	Name          *string `json:"company_name"`
	Description   *string `json:"description"`
	EmployeeCount *int64  `json:"number_of_employees"`
}

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"company_name"`
	Description   string    `json:"description"`
	EmployeeCount int64     `json:"number_of_employees"`
	Owner         string    `json:"owner"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CompanyListResponse is one page of companies in page-number pagination shape.
type CompanyListResponse struct {
	Count    int64             `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []CompanyResponse `json:"results"`
}

// UpdateCompanyResponse confirms an update.
type UpdateCompanyResponse struct {
	Message string          `json:"message"`
	Company CompanyResponse `json:"company"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error        string   `json:"error"`
	Code         string   `json:"code"`
	ValidOptions []string `json:"valid_options,omitempty"`
	CompanyID    string   `json:"company_id,omitempty"`
}

// ToCompanyResponse converts a Company model to CompanyResponse DTO.
func ToCompanyResponse(company *model.Company) CompanyResponse {
	return CompanyResponse{
		ID:            company.ID,
		Name:          company.Name,
		Description:   company.Description,
		EmployeeCount: company.EmployeeCount,
		Owner:         company.OwnerID,
		CreatedAt:     company.CreatedAt,
		UpdatedAt:     company.UpdatedAt,
	}
}

// ToCompanyListResponse converts a page of companies.
func ToCompanyListResponse(companies []*model.Company, count int64, next, previous *string) *CompanyListResponse {
	results := make([]CompanyResponse, 0, len(companies))
	for _, c := range companies {
		results = append(results, ToCompanyResponse(c))
	}
	return &CompanyListResponse{
		Count:    count,
		Next:     next,
		Previous: previous,
		Results:  results,
	}
}
