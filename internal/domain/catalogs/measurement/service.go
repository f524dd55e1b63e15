package measurement

import (
	"context"
	"fmt"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Repository defines the interface for Measurement persistence.
type Repository = domain.CatalogRepository[*Measurement]

// CustomerChecker reports whether an active customer exists.
type CustomerChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}

// Service provides business logic for measurements.
type Service struct {
	*domain.CatalogService[*Measurement]
	customers CustomerChecker
}

// NewService creates a new Measurement service.
func NewService(repo Repository, customers CustomerChecker, txm tx.Manager, journal audit.Recorder) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Measurement]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Measurement,
	})

	svc := &Service{CatalogService: base, customers: customers}
	base.Hooks().OnBeforeCreate(svc.checkCustomer)
	base.Hooks().OnBeforeUpdate(svc.checkCustomer)
	return svc
}

// checkCustomer rejects measurements for unknown or deleted customers.
func (s *Service) checkCustomer(ctx context.Context, m *Measurement) error {
	if s.customers == nil {
		return nil
	}
	ok, err := s.customers.Exists(ctx, m.CustomerID)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if !ok {
		return apperror.NewNotFound("customer", m.CustomerID.String())
	}
	return nil
}
