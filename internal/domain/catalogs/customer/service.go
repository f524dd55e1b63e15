package customer

import (
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Repository defines the interface for Customer persistence.
type Repository = domain.CatalogRepository[*Customer]

// Service provides business logic for the Customer catalog.
type Service = domain.CatalogService[*Customer]

// NewService creates a new Customer service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Customer,
	})
}
