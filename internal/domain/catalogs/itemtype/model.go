// Package itemtype provides item-type templates (shirt, trousers, gown)
// listing the measurement fields a garment of that type needs.
package itemtype

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// ItemType is a garment template.
type ItemType struct {
	entity.BaseEntity

	Name string `db:"name" json:"name"`
	// Fields lists the measurement keys (text[] in storage).
	Fields      []string `db:"fields" json:"fields"`
	Description *string  `db:"description" json:"description,omitempty"`
}

// NewItemType creates a new ItemType.
func NewItemType(name string, fields ...string) *ItemType {
	return &ItemType{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
		Fields:     fields,
	}
}

// Validate implements entity.Validatable interface.
func (t *ItemType) Validate(ctx context.Context) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if strings.TrimSpace(f) == "" {
			return apperror.NewValidation("measurement field name cannot be empty").
				WithDetail("field", "fields")
		}
		if _, dup := seen[f]; dup {
			return apperror.NewValidation("duplicate measurement field").
				WithDetail("field", "fields").
				WithDetail("value", f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// DisplayFields implements entity.Record.
func (t *ItemType) DisplayFields() map[string]any {
	return map[string]any{"name": t.Name}
}

// Repository defines the interface for ItemType persistence.
type Repository = domain.CatalogRepository[*ItemType]

// Service provides business logic for item types.
type Service = domain.CatalogService[*ItemType]

// NewService creates a new ItemType service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*ItemType]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.ItemType,
	})
}

// Clone returns a copy with its own field list.
func (t *ItemType) Clone() *ItemType {
	cp := *t
	cp.Fields = append([]string(nil), t.Fields...)
	return &cp
}
