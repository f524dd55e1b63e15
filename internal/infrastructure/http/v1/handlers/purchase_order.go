package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"atelier/internal/core/id"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler serves purchase orders and their lifecycle actions.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchase_order.Service
}

// NewPurchaseOrderHandler creates a purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchase_order.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service}
}

// List handles GET /purchase-orders[?status=ordered].
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	status := purchase_order.Status(c.Query("status"))
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c), status)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(h.BaseHandler, c, result)
}

// Create handles POST /purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.Create(c.Request.Context(), req.SupplierID, req.ToItems())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, po)
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.service.GetByID(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// MarkOrdered handles POST /purchase-orders/:id/order.
func (h *PurchaseOrderHandler) MarkOrdered(c *gin.Context) {
	h.transition(c, h.service.MarkOrdered)
}

// Cancel handles POST /purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// Pay handles POST /purchase-orders/:id/pay.
func (h *PurchaseOrderHandler) Pay(c *gin.Context) {
	var req dto.PayRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.transition(c, func(ctx context.Context, poID id.ID) (*purchase_order.PurchaseOrder, error) {
		return h.service.Pay(ctx, poID, req.Method)
	})
}

// Receive handles POST /purchase-orders/:id/receive.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, balances, err := h.service.ReceiveItems(c.Request.Context(), poID, req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}
	if balances == nil {
		balances = []purchase_order.MaterialBalance{}
	}
	h.OK(c, dto.ReceiveResponse{PurchaseOrder: po, Materials: balances})
}

// Delete handles DELETE /purchase-orders/:id.
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	h.lifecycle(c, h.service.SoftDelete, true)
}

// Restore handles PUT /purchase-orders/:id/restore.
func (h *PurchaseOrderHandler) Restore(c *gin.Context) {
	h.lifecycle(c, h.service.Restore, true)
}

// Purge handles DELETE /purchase-orders/:id/force.
func (h *PurchaseOrderHandler) Purge(c *gin.Context) {
	h.lifecycle(c, h.service.Purge, false)
}

func (h *PurchaseOrderHandler) transition(c *gin.Context, fn func(ctx context.Context, poID id.ID) (*purchase_order.PurchaseOrder, error)) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := fn(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

func (h *PurchaseOrderHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, poID id.ID) error, respond bool) {
	ctx := c.Request.Context()

	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := fn(ctx, poID); err != nil {
		h.Error(c, err)
		return
	}
	if !respond {
		h.NoContent(c)
		return
	}

	po, err := h.service.GetByID(ctx, poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}
