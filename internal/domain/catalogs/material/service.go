package material

import (
	"context"
	"fmt"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
	"atelier/pkg/logger"
)

// Service provides business logic for the Material catalog.
type Service struct {
	*domain.CatalogService[*Material]
	repo           Repository
	orders         UsageCounter
	purchaseOrders UsageCounter
	txManager      tx.Manager
	journal        audit.Recorder
}

// ServiceConfig wires the material service.
type ServiceConfig struct {
	Repo           Repository
	Orders         UsageCounter
	PurchaseOrders UsageCounter
	TxManager      tx.Manager
	Journal        audit.Recorder
}

// NewService creates a new Material service.
func NewService(cfg ServiceConfig) *Service {
	journal := cfg.Journal
	if journal == nil {
		journal = audit.Nop{}
	}
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Direct{}
	}
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Material]{
		Repo:       cfg.Repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Material,
	})

	svc := &Service{
		CatalogService: base,
		repo:           cfg.Repo,
		orders:         cfg.Orders,
		purchaseOrders: cfg.PurchaseOrders,
		txManager:      txm,
		journal:        journal,
	}

	base.Hooks().OnBeforeDelete(svc.ensureUnused)

	return svc
}

// SoftDelete counts usage and marks the material deleted in one transaction
// that holds the material row lock. Orders consume stock through the same row,
// so a concurrent order either commits before the count or fails against the
// deleted material.
func (s *Service) SoftDelete(ctx context.Context, materialID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockActive(ctx, materialID); err != nil {
			return err
		}
		return s.CatalogService.SoftDelete(ctx, materialID)
	})
}

// ensureUnused blocks deletion while active orders or open purchase orders
// reference the material.
func (s *Service) ensureUnused(ctx context.Context, m *Material) error {
	var orders, pos int
	var err error
	if s.orders != nil {
		if orders, err = s.orders.CountMaterialUsage(ctx, m.ID); err != nil {
			return fmt.Errorf("count order usage: %w", err)
		}
	}
	if s.purchaseOrders != nil {
		if pos, err = s.purchaseOrders.CountMaterialUsage(ctx, m.ID); err != nil {
			return fmt.Errorf("count purchase order usage: %w", err)
		}
	}
	if orders > 0 || pos > 0 {
		return apperror.NewMaterialInUse(m.ID.String(), orders, pos)
	}
	return nil
}

// Stocktake overwrites the on-hand quantity after a physical count.
func (s *Service) Stocktake(ctx context.Context, materialID id.ID, qty types.Quantity) (*Material, error) {
	if qty.IsNegative() {
		return nil, apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	before, err := s.GetActive(ctx, materialID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetQuantity(ctx, materialID, qty); err != nil {
		return nil, fmt.Errorf("stocktake: %w", err)
	}

	logger.Info(ctx, "stocktake applied",
		"material_id", materialID,
		"previous", before.Quantity.String(),
		"quantity", qty.String(),
	)
	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: string(softdelete.Material),
		EntityID:   materialID,
		Action:     audit.ActionStocktake,
		Payload: map[string]any{
			"previous": before.Quantity.String(),
			"quantity": qty.String(),
		},
	})

	return s.GetByID(ctx, materialID)
}

// ListLowStock returns active materials at or below their threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]*Material, error) {
	return s.repo.ListLowStock(ctx)
}
