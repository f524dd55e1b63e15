package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/domain"
	"atelier/internal/domain/softdelete"
)

// EntityService is what CatalogHandler needs from a service. Both the
// generic domain.CatalogService and the document services satisfy it.
type EntityService[T entity.Record] interface {
	softdelete.SoftDeletable

	Create(ctx context.Context, e T) error
	GetByID(ctx context.Context, entityID id.ID) (T, error)
	Update(ctx context.Context, e T) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// CatalogHandler provides generic HTTP handlers for an entity. Request
// bodies are decoded straight onto the entity; the envelope (id, timestamps,
// deleted flag) is never taken from the client, except version on update.
type CatalogHandler[T entity.Record] struct {
	*BaseHandler
	service EntityService[T]

	newFn func() T
	// keep copies server-owned fields from the stored entity before update.
	keep func(stored, updated T)
	// reset clears collections a body replaces wholesale before decoding.
	reset func(e T)
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T entity.Record] struct {
	Service EntityService[T]
	// New returns an entity with its constructor defaults.
	New   func() T
	Keep  func(stored, updated T)
	Reset func(e T)
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T entity.Record](base *BaseHandler, cfg CatalogHandlerConfig[T]) *CatalogHandler[T] {
	return &CatalogHandler[T]{
		BaseHandler: base,
		service:     cfg.Service,
		newFn:       cfg.New,
		keep:        cfg.Keep,
		reset:       cfg.Reset,
	}
}

// List handles GET /{entity}.
func (h *CatalogHandler[T]) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	List(h.BaseHandler, c, result)
}

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T]) Create(c *gin.Context) {
	e := h.newFn()
	envelope := *e.Base()
	if !h.BindJSON(c, e) {
		return
	}
	*e.Base() = envelope

	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// Update handles PUT /{entity}/:id. Fields missing from the body keep their
// stored values.
func (h *CatalogHandler[T]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	stored, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	updated, ok := h.decodeOnto(c, entityID)
	if !ok {
		return
	}
	if h.keep != nil {
		h.keep(stored, updated)
	}

	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// decodeOnto loads the entity again and applies the body to it, so the
// stored copy used by keep stays untouched. Slices cleared by reset are
// decoded fresh instead of into the stored elements.
func (h *CatalogHandler[T]) decodeOnto(c *gin.Context, entityID id.ID) (T, bool) {
	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return e, false
	}

	envelope := *e.Base()
	if h.reset != nil {
		h.reset(e)
	}
	if !h.BindJSON(c, e) {
		return e, false
	}
	version := e.Base().Version
	*e.Base() = envelope
	if version > 0 {
		e.Base().Version = version
	}
	return e, true
}

// Delete handles DELETE /{entity}/:id: moves the record to the trash and
// returns it.
func (h *CatalogHandler[T]) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.SoftDelete(ctx, entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.respondWith(c, entityID)
}

// Restore handles PUT /{entity}/:id/restore.
func (h *CatalogHandler[T]) Restore(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Restore(ctx, entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.respondWith(c, entityID)
}

// Purge handles DELETE /{entity}/:id/force.
func (h *CatalogHandler[T]) Purge(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Purge(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CatalogHandler[T]) respondWith(c *gin.Context, entityID id.ID) {
	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}
