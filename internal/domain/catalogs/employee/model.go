// Package employee provides the Employee catalog (tailors, cutters, staff).
package employee

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/types"
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Employee is a member of staff.
type Employee struct {
	entity.BaseEntity

	Name   string      `db:"name" json:"name"`
	Role   string      `db:"role" json:"role"`
	Phone  *string     `db:"phone" json:"phone,omitempty"`
	Salary types.Money `db:"salary" json:"salary"`
}

// NewEmployee creates a new Employee.
func NewEmployee(name, role string) *Employee {
	return &Employee{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
		Role:       role,
	}
}

// Validate implements entity.Validatable interface.
func (e *Employee) Validate(ctx context.Context) error {
	if strings.TrimSpace(e.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if e.Salary.IsNegative() {
		return apperror.NewValidation("salary cannot be negative").
			WithDetail("field", "salary")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (e *Employee) DisplayFields() map[string]any {
	return map[string]any{"name": e.Name, "role": e.Role}
}

// Repository defines the interface for Employee persistence.
type Repository = domain.CatalogRepository[*Employee]

// Service provides business logic for the Employee catalog.
type Service = domain.CatalogService[*Employee]

// NewService creates a new Employee service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*Employee]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Employee,
	})
}
