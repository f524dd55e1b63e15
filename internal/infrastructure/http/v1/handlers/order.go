package handlers

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/core/id"
	"atelier/internal/domain/documents/order"
)

// OrderHandler serves customer orders.
type OrderHandler struct {
	*CatalogHandler[*order.Order]
	service *order.Service
}

// NewOrderHandler creates an order handler. The order number is assigned on
// create and never changes.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*order.Order]{
			Service: service,
			New: func() *order.Order {
				return order.NewOrder(id.ID{})
			},
			Keep: func(stored, updated *order.Order) {
				updated.Number = stored.Number
				if updated.MaterialsUsed == nil {
					updated.MaterialsUsed = stored.MaterialsUsed
				}
			},
			Reset: func(o *order.Order) {
				o.MaterialsUsed = nil
			},
		}),
		service: service,
	}
}

// ListByCustomer handles GET /customers/:id/orders.
func (h *OrderHandler) ListByCustomer(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.ListByCustomer(c.Request.Context(), customerID, h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	List(h.BaseHandler, c, result)
}
