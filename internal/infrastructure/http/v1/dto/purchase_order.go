package dto

import (
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/documents/purchase_order"
)

// PurchaseOrderItemRequest is one ordered line.
type PurchaseOrderItemRequest struct {
	MaterialID id.ID          `json:"material" binding:"required"`
	Quantity   types.Quantity `json:"quantity"`
	UnitCost   types.Money    `json:"unitCost"`
}

// CreatePurchaseOrderRequest is the request body for creating a purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID id.ID                      `json:"supplierId" binding:"required"`
	Items      []PurchaseOrderItemRequest `json:"items"`
	Notes      *string                    `json:"notes"`
}

// ToItems converts the request lines to domain items.
func (r *CreatePurchaseOrderRequest) ToItems() []purchase_order.Item {
	items := make([]purchase_order.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, purchase_order.Item{
			MaterialID:      it.MaterialID,
			OrderedQuantity: it.Quantity,
			UnitCost:        it.UnitCost,
		})
	}
	return items
}

// ReceiveRequest is a batch of received quantities.
type ReceiveRequest struct {
	Items []purchase_order.Receipt `json:"items" binding:"required"`
}

// ReceiveResponse carries the updated purchase order and the new material
// quantities.
type ReceiveResponse struct {
	PurchaseOrder *purchase_order.PurchaseOrder   `json:"purchaseOrder"`
	Materials     []purchase_order.MaterialBalance `json:"materials"`
}

// PayRequest records a payment.
type PayRequest struct {
	Method string `json:"method" binding:"required"`
}
