// Package order provides customer orders and the stock they consume.
package order

import (
	"context"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/stock"
)

// Status is the workshop progress of an order. It has no stock effect.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusDelivered  Status = "delivered"
)

// Order is a customer order. MaterialsUsed is the stock the order holds:
// it was consumed when the lines were saved and is released when the order
// is deleted.
type Order struct {
	entity.BaseEntity

	Number     string      `db:"number" json:"number"`
	CustomerID id.ID       `db:"customer_id" json:"customerId"`
	StyleID    *id.ID      `db:"style_id" json:"styleId,omitempty"`
	Status     Status      `db:"status" json:"status"`
	Price      types.Money `db:"price" json:"price"`
	DueDate    *time.Time  `db:"due_date" json:"dueDate,omitempty"`
	Notes      *string     `db:"notes" json:"notes,omitempty"`

	MaterialsUsed []stock.Line `db:"-" json:"materialsUsed"`
}

// NewOrder creates a pending order for a customer.
func NewOrder(customerID id.ID, lines ...stock.Line) *Order {
	return &Order{
		BaseEntity:    entity.NewBaseEntity(),
		CustomerID:    customerID,
		Status:        StatusPending,
		MaterialsUsed: append(make([]stock.Line, 0, len(lines)), lines...),
	}
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	switch o.Status {
	case StatusPending, StatusInProgress, StatusReady, StatusDelivered:
	default:
		return apperror.NewValidation("invalid order status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}

	if o.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	for i, line := range o.MaterialsUsed {
		if id.IsNil(line.MaterialID) {
			return apperror.NewValidation("material is required").
				WithDetail("field", "materialsUsed").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "materialsUsed").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// DisplayFields implements entity.Record.
func (o *Order) DisplayFields() map[string]any {
	return map[string]any{
		"number":     o.Number,
		"customerId": o.CustomerID.String(),
		"status":     string(o.Status),
	}
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	cp := *o
	cp.MaterialsUsed = make([]stock.Line, len(o.MaterialsUsed))
	copy(cp.MaterialsUsed, o.MaterialsUsed)
	return &cp
}

// UsesMaterial reports whether any line references the material.
func (o *Order) UsesMaterial(materialID id.ID) bool {
	for _, line := range o.MaterialsUsed {
		if line.MaterialID == materialID {
			return true
		}
	}
	return false
}
