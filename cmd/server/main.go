// Package main is the entry point for the atelier API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"atelier/internal/config"
	"atelier/internal/core/tx"
	v1 "atelier/internal/infrastructure/http/v1"
	"atelier/internal/infrastructure/http/v1/handlers"
	"atelier/internal/infrastructure/numerator"
	"atelier/internal/infrastructure/storage/memory"
	"atelier/internal/infrastructure/storage/postgres"
	"atelier/internal/infrastructure/storage/postgres/catalog_repo"
	"atelier/internal/infrastructure/storage/postgres/document_repo"
	"atelier/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
		Service:     "atelier",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting atelier server", "storage", cfg.StorageDriver)

	var (
		repos   v1.Repositories
		deps    v1.Dependencies
		health  *handlers.HealthHandler
		cleanup = func() {}
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		repos, deps = memoryStorage()
		health = handlers.NewHealthHandler(config.StorageMemory, nil)
		log.Warn("in-memory storage: data is lost on restart")

	default:
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		cleanup = pool.Close
		log.Info("database connection established")

		if cfg.DBApplySchema {
			if err := postgres.ApplySchema(ctx, pool); err != nil {
				log.Fatalw("failed to apply schema", "error", err)
			}
		}

		txm := postgres.NewTxManager(pool)
		repos, deps, err = postgresStorage(txm)
		if err != nil {
			log.Fatalw("failed to initialize storage", "error", err)
		}
		health = handlers.NewHealthHandler(config.StoragePostgres, txm)
	}
	defer cleanup()

	deps.FanoutLimit = cfg.TrashFanoutLimit
	services, err := v1.NewServices(repos, deps)
	if err != nil {
		log.Fatalw("failed to initialize services", "error", err)
	}

	mode := gin.ReleaseMode
	if cfg.IsDevelopment() {
		mode = gin.DebugMode
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Services: services,
		Health:   health,
		Logger:   log,
		Mode:     mode,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func memoryStorage() (v1.Repositories, v1.Dependencies) {
	repos := v1.Repositories{
		Customers:           memory.NewCustomerRepo(),
		Employees:           memory.NewEmployeeRepo(),
		Measurements:        memory.NewMeasurementRepo(),
		Styles:              memory.NewStyleRepo(),
		Jobs:                memory.NewJobRepo(),
		ItemTypes:           memory.NewItemTypeRepo(),
		Suppliers:           memory.NewSupplierRepo(),
		Users:               memory.NewUserRepo(),
		Notifications:       memory.NewNotificationRepo(),
		FinanceTransactions: memory.NewFinanceRepo(),
		Materials:           memory.NewMaterialRepo(),
		Orders:              memory.NewOrderRepo(),
		PurchaseOrders:      memory.NewPurchaseOrderRepo(),
	}
	deps := v1.Dependencies{
		TxManager: tx.Direct{},
		Journal:   memory.NewAuditRecorder(),
		Numerator: memory.NewNumerator(),
	}
	return repos, deps
}

func postgresStorage(txm *postgres.TxManager) (v1.Repositories, v1.Dependencies, error) {
	journal, err := postgres.NewAuditRecorder(txm, postgres.DefaultCompressThreshold)
	if err != nil {
		return v1.Repositories{}, v1.Dependencies{}, err
	}

	repos := v1.Repositories{
		Customers:           catalog_repo.NewCustomerRepo(txm),
		Employees:           catalog_repo.NewEmployeeRepo(txm),
		Measurements:        catalog_repo.NewMeasurementRepo(txm),
		Styles:              catalog_repo.NewStyleRepo(txm),
		Jobs:                catalog_repo.NewJobRepo(txm),
		ItemTypes:           catalog_repo.NewItemTypeRepo(txm),
		Suppliers:           catalog_repo.NewSupplierRepo(txm),
		Users:               catalog_repo.NewUserRepo(txm),
		Notifications:       catalog_repo.NewNotificationRepo(txm),
		FinanceTransactions: catalog_repo.NewFinanceRepo(txm),
		Materials:           catalog_repo.NewMaterialRepo(txm),
		Orders:              document_repo.NewOrderRepo(txm),
		PurchaseOrders:      document_repo.NewPurchaseOrderRepo(txm),
	}
	deps := v1.Dependencies{
		TxManager: txm,
		Journal:   journal,
		Numerator: numerator.NewWithSource(func(ctx context.Context) numerator.Querier {
			return txm.GetQuerier(ctx)
		}),
	}
	return repos, deps, nil
}
