// Package material provides the Material catalog: fabric, thread, buttons and
// other stock whose on-hand quantity is driven by orders and purchase orders.
package material

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// Material is a stocked consumable.
//
// Quantity is never edited directly: orders consume it, receipts add to it
// and a stocktake overwrites it.
type Material struct {
	entity.BaseEntity

	Name              string         `db:"name" json:"name"`
	Type              string         `db:"type" json:"type"`
	Unit              string         `db:"unit" json:"unit"`
	Color             *string        `db:"color" json:"color,omitempty"`
	Quantity          types.Quantity `db:"quantity" json:"quantity"`
	CostPerUnit       types.Money    `db:"cost_per_unit" json:"costPerUnit"`
	LowStockThreshold types.Quantity `db:"low_stock_threshold" json:"lowStockThreshold"`
	SupplierID        *id.ID         `db:"supplier_id" json:"supplierId,omitempty"`
}

// NewMaterial creates a material with an initial stock level.
func NewMaterial(name, unit string, quantity types.Quantity) *Material {
	return &Material{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
		Unit:       unit,
		Quantity:   quantity,
	}
}

// Validate implements entity.Validatable interface.
func (m *Material) Validate(ctx context.Context) error {
	if strings.TrimSpace(m.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if strings.TrimSpace(m.Unit) == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	if m.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}
	if m.LowStockThreshold.IsNegative() {
		return apperror.NewValidation("low stock threshold cannot be negative").
			WithDetail("field", "lowStockThreshold")
	}
	if m.CostPerUnit.IsNegative() {
		return apperror.NewValidation("cost per unit cannot be negative").
			WithDetail("field", "costPerUnit")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (m *Material) DisplayFields() map[string]any {
	return map[string]any{
		"name":     m.Name,
		"unit":     m.Unit,
		"quantity": m.Quantity.String(),
	}
}

// IsLowStock reports whether the on-hand quantity is at or below the threshold.
func (m *Material) IsLowStock() bool {
	return m.Quantity <= m.LowStockThreshold
}
