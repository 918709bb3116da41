package model

import (
	"strings"
	"time"
)

// MaxCompanyNameLength bounds Company.Name.
const MaxCompanyNameLength = 255

// Company represents a business entity owned by exactly one account.
type Company struct {
	ID            string    `json:"id"`
	Name          string    `json:"company_name"`
	Description   string    `json:"description"`
	EmployeeCount int64     `json:"number_of_employees"`
	OwnerID       string    `json:"owner"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether accountID owns the company.
func (c *Company) IsOwnedBy(accountID string) bool {
	return c.OwnerID == accountID
}

// CompanyField names a company attribute as exposed on the wire.
type CompanyField string

const (
	FieldName          CompanyField = "company_name"
	FieldDescription   CompanyField = "description"
	FieldEmployeeCount CompanyField = "number_of_employees"
)

// OrderingFields is the allow-list of fields a company list can be sorted by.
var OrderingFields = []CompanyField{FieldName, FieldDescription, FieldEmployeeCount}

// UpdatableFields is the allow-list of fields an owner may change after creation.
var UpdatableFields = []CompanyField{FieldEmployeeCount}

// CompanyOrder describes the sort applied to a company list.
// The zero value means insertion order.
type CompanyOrder struct {
	Field      CompanyField
	Descending bool
}

// IsZero reports whether no explicit ordering was requested.
func (o CompanyOrder) IsZero() bool {
	return o.Field == ""
}

// String renders the order in query-parameter form, e.g. "-number_of_employees".
func (o CompanyOrder) String() string {
	if o.IsZero() {
		return ""
	}
	if o.Descending {
		return "-" + string(o.Field)
	}
	return string(o.Field)
}

// FieldNames returns the string form of fields, joined by sep.
func FieldNames(fields []CompanyField, sep string) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, sep)
}
