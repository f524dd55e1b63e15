// Package purchase_order provides supplier purchase orders: the path by
// which stock is replenished.
package purchase_order

import (
	"context"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/stock"
)

// Status of a purchase order.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusOrdered   Status = "ordered"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusOrdered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// Received and cancelled are terminal.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusOrdered || target == StatusCancelled
	case StatusOrdered:
		return target == StatusReceived || target == StatusCancelled
	default:
		return false
	}
}

// IsOpen reports whether goods are still expected.
func (s Status) IsOpen() bool {
	return s == StatusDraft || s == StatusOrdered
}

// Item is one material line of a purchase order.
type Item struct {
	ID               id.ID          `db:"id" json:"id"`
	MaterialID       id.ID          `db:"material_id" json:"material"`
	OrderedQuantity  types.Quantity `db:"ordered_quantity" json:"quantity"`
	ReceivedQuantity types.Quantity `db:"received_quantity" json:"receivedQuantity"`
	UnitCost         types.Money    `db:"unit_cost" json:"unitCost"`
}

// Remaining returns how much is still to be delivered.
func (i Item) Remaining() types.Quantity {
	return i.OrderedQuantity - i.ReceivedQuantity
}

// IsFullyReceived checks if all goods for this line are in.
func (i Item) IsFullyReceived() bool {
	return i.ReceivedQuantity == i.OrderedQuantity
}

// Receipt is one line of a receive batch.
type Receipt struct {
	ItemID   id.ID          `json:"itemId"`
	Quantity types.Quantity `json:"receivedQuantity"`
}

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	entity.BaseEntity

	Number        string      `db:"number" json:"number"`
	SupplierID    id.ID       `db:"supplier_id" json:"supplierId"`
	Status        Status      `db:"status" json:"status"`
	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`
	OrderedAt     *time.Time  `db:"ordered_at" json:"orderedAt,omitempty"`
	ReceivedAt    *time.Time  `db:"received_at" json:"receivedAt,omitempty"`
	CancelledAt   *time.Time  `db:"cancelled_at" json:"cancelledAt,omitempty"`
	PaymentMethod *string     `db:"payment_method" json:"paymentMethod,omitempty"`
	PaidAt        *time.Time  `db:"paid_at" json:"paidAt,omitempty"`
	Notes         *string     `db:"notes" json:"notes,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// NewPurchaseOrder creates a draft purchase order. Items get fresh ids and
// start with nothing received.
func NewPurchaseOrder(supplierID id.ID, items []Item) *PurchaseOrder {
	po := &PurchaseOrder{
		BaseEntity: entity.NewBaseEntity(),
		SupplierID: supplierID,
		Status:     StatusDraft,
		Items:      make([]Item, 0, len(items)),
	}
	for _, item := range items {
		item.ID = id.New()
		item.ReceivedQuantity = 0
		po.Items = append(po.Items, item)
	}
	po.recalculateTotal()
	return po
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if !p.Status.IsValid() {
		return apperror.NewValidation("invalid purchase order status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}
	if len(p.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range p.Items {
		if id.IsNil(item.MaterialID) {
			return apperror.NewValidation("material is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.OrderedQuantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.ReceivedQuantity.IsNegative() || item.ReceivedQuantity > item.OrderedQuantity {
			return apperror.NewValidation("received quantity out of range").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// DisplayFields implements entity.Record.
func (p *PurchaseOrder) DisplayFields() map[string]any {
	return map[string]any{
		"number":      p.Number,
		"supplierId":  p.SupplierID.String(),
		"status":      string(p.Status),
		"totalAmount": p.TotalAmount.String(),
	}
}

// Clone returns a deep copy.
func (p *PurchaseOrder) Clone() *PurchaseOrder {
	cp := *p
	cp.Items = make([]Item, len(p.Items))
	copy(cp.Items, p.Items)
	return &cp
}

// MarkOrdered moves a draft to ordered.
func (p *PurchaseOrder) MarkOrdered(at time.Time) error {
	if err := p.transition(StatusOrdered); err != nil {
		return err
	}
	p.OrderedAt = &at
	return nil
}

// Cancel stops a draft or ordered purchase order. Goods already received
// stay received.
func (p *PurchaseOrder) Cancel(at time.Time) error {
	if err := p.transition(StatusCancelled); err != nil {
		return err
	}
	p.CancelledAt = &at
	return nil
}

// Pay records a payment. It does not touch the status or stock.
func (p *PurchaseOrder) Pay(method string, at time.Time) error {
	if method == "" {
		return apperror.NewValidation("payment method is required").
			WithDetail("field", "method")
	}
	if p.Status == StatusCancelled {
		return apperror.NewInvalidTransition("purchase order", string(p.Status), "paid")
	}
	if p.PaidAt != nil {
		return apperror.NewInvalidState("purchase order", p.ID.String(), "purchase order is already paid")
	}
	p.PaymentMethod = &method
	p.PaidAt = &at
	return nil
}

// Receive applies a receive batch and returns the stock to add per line.
//
// The whole batch is checked before anything changes: positive quantities,
// known item ids, and cumulative received never above ordered (submissions
// for the same item are summed). Only an ordered purchase order accepts goods.
// When every item is complete the status becomes received.
func (p *PurchaseOrder) Receive(receipts []Receipt, at time.Time) ([]stock.Line, error) {
	if len(receipts) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	index := make(map[id.ID]int, len(p.Items))
	for i, item := range p.Items {
		index[item.ID] = i
	}

	submitted := make(map[id.ID]types.Quantity, len(receipts))
	for i, r := range receipts {
		if !r.Quantity.IsPositive() {
			return nil, apperror.NewValidation("received quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if _, ok := index[r.ItemID]; !ok {
			return nil, apperror.NewNotFound("purchase order item", r.ItemID.String())
		}
		submitted[r.ItemID] += r.Quantity
	}

	for _, r := range receipts {
		item := p.Items[index[r.ItemID]]
		total := submitted[r.ItemID]
		if item.ReceivedQuantity+total > item.OrderedQuantity {
			return nil, apperror.NewOverReceipt(
				item.ID.String(),
				item.MaterialID.String(),
				item.OrderedQuantity.String(),
				item.ReceivedQuantity.String(),
				total.String(),
			)
		}
	}

	if p.Status != StatusOrdered {
		return nil, apperror.NewInvalidTransition("purchase order", string(p.Status), "receive")
	}

	lines := make([]stock.Line, 0, len(receipts))
	for _, r := range receipts {
		i := index[r.ItemID]
		p.Items[i].ReceivedQuantity += r.Quantity
		lines = append(lines, stock.Line{MaterialID: p.Items[i].MaterialID, Quantity: r.Quantity})
	}

	if p.allItemsReceived() {
		p.Status = StatusReceived
		p.ReceivedAt = &at
	}

	return lines, nil
}

// UsesMaterial reports whether any item references the material.
func (p *PurchaseOrder) UsesMaterial(materialID id.ID) bool {
	for _, item := range p.Items {
		if item.MaterialID == materialID {
			return true
		}
	}
	return false
}

func (p *PurchaseOrder) transition(target Status) error {
	if !p.Status.CanTransitionTo(target) {
		return apperror.NewInvalidTransition("purchase order", string(p.Status), string(target))
	}
	p.Status = target
	return nil
}

func (p *PurchaseOrder) allItemsReceived() bool {
	for _, item := range p.Items {
		if !item.IsFullyReceived() {
			return false
		}
	}
	return true
}

func (p *PurchaseOrder) recalculateTotal() {
	total := types.Money{}
	for _, item := range p.Items {
		total = total.Add(item.OrderedQuantity.Times(item.UnitCost))
	}
	p.TotalAmount = total
}
