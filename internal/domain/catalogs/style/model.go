// Package style provides the garment Style catalog.
package style

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Style is a garment design offered to customers.
type Style struct {
	entity.BaseEntity

	Name        string      `db:"name" json:"name"`
	ItemTypeID  *id.ID      `db:"item_type_id" json:"itemTypeId,omitempty"`
	Description *string     `db:"description" json:"description,omitempty"`
	BasePrice   types.Money `db:"base_price" json:"basePrice"`
}

// NewStyle creates a new Style.
func NewStyle(name string) *Style {
	return &Style{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
	}
}

// Validate implements entity.Validatable interface.
func (s *Style) Validate(ctx context.Context) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if s.BasePrice.IsNegative() {
		return apperror.NewValidation("base price cannot be negative").
			WithDetail("field", "basePrice")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (s *Style) DisplayFields() map[string]any {
	return map[string]any{"name": s.Name}
}

// Repository defines the interface for Style persistence.
type Repository = domain.CatalogRepository[*Style]

// Service provides business logic for the Style catalog.
type Service = domain.CatalogService[*Style]

// NewService creates a new Style service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*Style]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Style,
	})
}
