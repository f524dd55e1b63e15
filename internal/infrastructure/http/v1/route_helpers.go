// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// EntityRouteHandler defines the routes every soft-deletable entity exposes.
type EntityRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Restore(c *gin.Context)
	Purge(c *gin.Context)
}

// RegisterEntityRoutes registers CRUD plus the trash lifecycle routes.
//
// Usage:
//
//	repo := catalog_repo.NewCustomerRepo(txm)
//	service := customer.NewService(repo, txm, journal)
//	handler := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*customer.Customer]{...})
//	RegisterEntityRoutes(api.Group("/customers"), handler)
func RegisterEntityRoutes(group *gin.RouterGroup, handler EntityRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.PUT("/:id/restore", handler.Restore)
	group.DELETE("/:id/force", handler.Purge)
}
