package service

import (
	"fmt"
	"strings"

	"github.com/companyhub/companyhub/internal/model"
)

// ParseOrdering turns a query value like "-number_of_employees" into a
// CompanyOrder. A single leading '-' selects descending order. An empty
// value selects insertion order.
func ParseOrdering(raw string) (model.CompanyOrder, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.CompanyOrder{}, nil
	}

	field, descending := strings.CutPrefix(raw, "-")
	for _, allowed := range model.OrderingFields {
		if model.CompanyField(field) == allowed {
			return model.CompanyOrder{Field: allowed, Descending: descending}, nil
		}
	}

	options := make([]string, len(model.OrderingFields))
	for i, f := range model.OrderingFields {
		options[i] = string(f)
	}

	return model.CompanyOrder{}, &Error{
		Kind:         KindInvalidOrderingField,
		Message:      fmt.Sprintf("Invalid ordering field '%s'. Valid options are: %s.", field, model.FieldNames(model.OrderingFields, ", ")),
		ValidOptions: options,
	}
}
