// Package customer provides the Customer catalog.
package customer

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
)

// Customer is a client of the atelier.
type Customer struct {
	entity.BaseEntity

	Name    string  `db:"name" json:"name"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`
	Notes   *string `db:"notes" json:"notes,omitempty"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(name string) *Customer {
	return &Customer{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if c.Email != nil && *c.Email != "" && !strings.Contains(*c.Email, "@") {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (c *Customer) DisplayFields() map[string]any {
	fields := map[string]any{"name": c.Name}
	if c.Phone != nil {
		fields["phone"] = *c.Phone
	}
	return fields
}
