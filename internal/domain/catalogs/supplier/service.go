package supplier

import (
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Repository defines the interface for Supplier persistence.
type Repository = domain.CatalogRepository[*Supplier]

// Service provides business logic for the Supplier catalog.
// Purchase orders keep their supplier reference when a supplier is deleted.
type Service = domain.CatalogService[*Supplier]

// NewService creates a new Supplier service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Supplier,
	})
}
