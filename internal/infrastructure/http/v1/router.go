package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/domain/catalogs/customer"
	"atelier/internal/domain/catalogs/employee"
	"atelier/internal/domain/catalogs/finance"
	"atelier/internal/domain/catalogs/itemtype"
	"atelier/internal/domain/catalogs/job"
	"atelier/internal/domain/catalogs/measurement"
	"atelier/internal/domain/catalogs/notification"
	"atelier/internal/domain/catalogs/style"
	"atelier/internal/domain/catalogs/supplier"
	"atelier/internal/domain/catalogs/user"
	"atelier/internal/infrastructure/http/v1/handlers"
	"atelier/internal/infrastructure/http/v1/middleware"
	"atelier/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services *Services
	Health   *handlers.HealthHandler
	Logger   *logger.Logger
	// Mode is the gin mode (release, debug, test).
	Mode string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	api := router.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", cfg.Health.Live)
		health.GET("/ready", cfg.Health.Ready)
	}

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(api, base, cfg.Services)
	registerStockRoutes(api, base, cfg.Services)
	registerTrashRoutes(api, base, cfg.Services)

	return router
}

// catalog builds a generic handler; newFn supplies constructor defaults.
func catalog[T entity.Record](base *handlers.BaseHandler, svc handlers.EntityService[T], newFn func() T) *handlers.CatalogHandler[T] {
	return handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[T]{
		Service: svc,
		New:     newFn,
	})
}

// registerCatalogRoutes registers the reference-data catalogs.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	customers := rg.Group("/customers")
	customers.GET("/:id/orders", handlers.NewOrderHandler(base, s.Orders).ListByCustomer)
	RegisterEntityRoutes(customers,
		catalog(base, s.Customers, func() *customer.Customer { return customer.NewCustomer("") }))
	RegisterEntityRoutes(rg.Group("/employees"),
		catalog(base, s.Employees, func() *employee.Employee { return employee.NewEmployee("", "") }))
	RegisterEntityRoutes(rg.Group("/measurements"),
		catalog(base, s.Measurements, func() *measurement.Measurement { return measurement.NewMeasurement(id.ID{}, "") }))
	RegisterEntityRoutes(rg.Group("/styles"),
		catalog(base, s.Styles, func() *style.Style { return style.NewStyle("") }))
	RegisterEntityRoutes(rg.Group("/jobs"),
		catalog(base, s.Jobs, func() *job.Job { return job.NewJob("") }))
	RegisterEntityRoutes(rg.Group("/item-types"),
		catalog(base, s.ItemTypes, func() *itemtype.ItemType { return itemtype.NewItemType("") }))
	RegisterEntityRoutes(rg.Group("/suppliers"),
		catalog(base, s.Suppliers, func() *supplier.Supplier { return supplier.NewSupplier("") }))
	RegisterEntityRoutes(rg.Group("/users"),
		catalog(base, s.Users, func() *user.User { return user.NewUser("", "") }))
	RegisterEntityRoutes(rg.Group("/notifications"),
		catalog(base, s.Notifications, func() *notification.Notification { return notification.NewNotification("", "") }))
	RegisterEntityRoutes(rg.Group("/finance-transactions"),
		catalog(base, s.FinanceTransactions, func() *finance.Transaction { return finance.NewTransaction(finance.KindExpense, decimal.Zero, "") }))
}

// registerStockRoutes registers materials, orders and purchase orders.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	materials := rg.Group("/materials")
	materialHandler := handlers.NewMaterialHandler(base, s.Materials)
	materials.GET("/low-stock", materialHandler.LowStock)
	materials.POST("/:id/stocktake", materialHandler.Stocktake)
	RegisterEntityRoutes(materials, materialHandler)

	RegisterEntityRoutes(rg.Group("/orders"), handlers.NewOrderHandler(base, s.Orders))

	po := handlers.NewPurchaseOrderHandler(base, s.PurchaseOrders)
	purchaseOrders := rg.Group("/purchase-orders")
	{
		purchaseOrders.GET("", po.List)
		purchaseOrders.POST("", po.Create)
		purchaseOrders.GET("/:id", po.Get)
		purchaseOrders.POST("/:id/order", po.MarkOrdered)
		purchaseOrders.POST("/:id/receive", po.Receive)
		purchaseOrders.POST("/:id/cancel", po.Cancel)
		purchaseOrders.POST("/:id/pay", po.Pay)
		purchaseOrders.DELETE("/:id", po.Delete)
		purchaseOrders.PUT("/:id/restore", po.Restore)
		purchaseOrders.DELETE("/:id/force", po.Purge)
	}
}

// registerTrashRoutes registers the cross-entity trash.
func registerTrashRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *Services) {
	h := handlers.NewTrashHandler(base, s.Trash)
	trashGroup := rg.Group("/trash")
	{
		trashGroup.GET("", h.List)
		trashGroup.DELETE("", h.Empty)
		trashGroup.PUT("/:type/:id/restore", h.Restore)
		trashGroup.DELETE("/:type/:id", h.Purge)
	}
}
