// Package supplier provides the Supplier catalog: vendors of fabric and trims.
package supplier

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
)

// Supplier is a material vendor referenced by purchase orders.
type Supplier struct {
	entity.BaseEntity

	Name          string  `db:"name" json:"name"`
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
}

// NewSupplier creates a new Supplier.
func NewSupplier(name string) *Supplier {
	return &Supplier{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if s.Email != nil && *s.Email != "" && !strings.Contains(*s.Email, "@") {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (s *Supplier) DisplayFields() map[string]any {
	fields := map[string]any{"name": s.Name}
	if s.ContactPerson != nil {
		fields["contactPerson"] = *s.ContactPerson
	}
	return fields
}
