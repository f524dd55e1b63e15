package handlers

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/core/types"
	"atelier/internal/domain/catalogs/material"
	"atelier/internal/infrastructure/http/v1/dto"
)

// MaterialHandler serves materials. Quantity changes only through stocktake.
type MaterialHandler struct {
	*CatalogHandler[*material.Material]
	service *material.Service
}

// NewMaterialHandler creates a material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*material.Material]{
			Service: service,
			New: func() *material.Material {
				return material.NewMaterial("", "", 0)
			},
			Keep: func(stored, updated *material.Material) {
				updated.Quantity = stored.Quantity
			},
		}),
		service: service,
	}
}

// Update handles PUT /materials/:id. A quantity in the body is applied as a
// stocktake after the descriptive fields are saved.
func (h *MaterialHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var probe dto.QuantityProbe
	if !h.BindJSON(c, &probe) {
		return
	}

	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	stored, err := h.service.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	updated, ok := h.decodeOnto(c, materialID)
	if !ok {
		return
	}
	updated.Quantity = stored.Quantity

	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}

	if probe.Quantity != nil {
		h.stocktake(c, *probe.Quantity)
		return
	}
	h.OK(c, updated)
}

// Stocktake handles POST /materials/:id/stocktake.
func (h *MaterialHandler) Stocktake(c *gin.Context) {
	var req dto.StocktakeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.stocktake(c, *req.Quantity)
}

func (h *MaterialHandler) stocktake(c *gin.Context, qty types.Quantity) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.Stocktake(c.Request.Context(), materialID, qty)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// LowStock handles GET /materials/low-stock.
func (h *MaterialHandler) LowStock(c *gin.Context) {
	items, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []*material.Material{}
	}
	h.OK(c, dto.LowStockResponse{Items: items})
}
