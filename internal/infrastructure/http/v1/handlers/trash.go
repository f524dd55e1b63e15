package handlers

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/core/apperror"
	"atelier/internal/domain/softdelete"
	"atelier/internal/domain/trash"
	"atelier/internal/infrastructure/http/v1/dto"
)

// TrashHandler serves the cross-entity trash.
type TrashHandler struct {
	*BaseHandler
	aggregator *trash.Aggregator
}

// NewTrashHandler creates a trash handler.
func NewTrashHandler(base *BaseHandler, aggregator *trash.Aggregator) *TrashHandler {
	return &TrashHandler{BaseHandler: base, aggregator: aggregator}
}

// List handles GET /trash.
func (h *TrashHandler) List(c *gin.Context) {
	result, err := h.aggregator.ListTrash(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := result.Entries
	if items == nil {
		items = []softdelete.Entry{}
	}
	h.OK(c, dto.TrashResponse{Items: items, Failed: result.Failed})
}

// Restore handles PUT /trash/:type/:id/restore.
func (h *TrashHandler) Restore(c *gin.Context) {
	entityType, ok := h.parseType(c)
	if !ok {
		return
	}
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.aggregator.Restore(c.Request.Context(), entityType, entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Purge handles DELETE /trash/:type/:id.
func (h *TrashHandler) Purge(c *gin.Context) {
	entityType, ok := h.parseType(c)
	if !ok {
		return
	}
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.aggregator.Purge(c.Request.Context(), entityType, entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Empty handles DELETE /trash.
func (h *TrashHandler) Empty(c *gin.Context) {
	result, err := h.aggregator.EmptyTrash(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

func (h *TrashHandler) parseType(c *gin.Context) (softdelete.EntityType, bool) {
	t, err := softdelete.ParseEntityType(c.Param("type"))
	if err != nil {
		h.Error(c, apperror.NewValidation("unknown entity type").
			WithDetail("type", c.Param("type")).
			WithCause(err))
		return "", false
	}
	return t, true
}
