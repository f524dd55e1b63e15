package job

import (
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Repository defines the interface for Job persistence.
type Repository = domain.CatalogRepository[*Job]

// Service provides business logic for jobs.
type Service = domain.CatalogService[*Job]

// NewService creates a new Job service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*Job]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Job,
	})
}
