package purchase_order

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/numerator"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
	"atelier/internal/domain/stock"
	"atelier/pkg/logger"
)

// ExistenceChecker reports whether an active record exists.
type ExistenceChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}

// MaterialBalance is a material quantity after a receipt.
type MaterialBalance struct {
	ID       id.ID          `json:"id"`
	Quantity types.Quantity `json:"quantity"`
}

// Service provides business operations for purchase orders.
type Service struct {
	repo      Repository
	ledger    *stock.Ledger
	suppliers ExistenceChecker
	materials ExistenceChecker
	numerator numerator.Generator
	txManager tx.Manager
	journal   audit.Recorder
}

// ServiceConfig wires the purchase order service.
type ServiceConfig struct {
	Repo      Repository
	Ledger    *stock.Ledger
	Suppliers ExistenceChecker
	Materials ExistenceChecker
	Numerator numerator.Generator
	TxManager tx.Manager
	Journal   audit.Recorder
}

var _ softdelete.SoftDeletable = (*Service)(nil)

// NewService creates a new purchase order service.
func NewService(cfg ServiceConfig) *Service {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Direct{}
	}
	journal := cfg.Journal
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Service{
		repo:      cfg.Repo,
		ledger:    cfg.Ledger,
		suppliers: cfg.Suppliers,
		materials: cfg.Materials,
		numerator: cfg.Numerator,
		txManager: txm,
		journal:   journal,
	}
}

func (s *Service) checkExists(ctx context.Context, checker ExistenceChecker, entity string, entityID id.ID) error {
	if checker == nil {
		return nil
	}
	ok, err := checker.Exists(ctx, entityID)
	if err != nil {
		return fmt.Errorf("check %s: %w", entity, err)
	}
	if !ok {
		return apperror.NewNotFound(entity, entityID.String())
	}
	return nil
}

// Create stores a new draft purchase order.
func (s *Service) Create(ctx context.Context, supplierID id.ID, items []Item) (*PurchaseOrder, error) {
	po := NewPurchaseOrder(supplierID, items)
	if err := po.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.checkExists(ctx, s.suppliers, "supplier", supplierID); err != nil {
		return nil, err
	}
	for _, item := range po.Items {
		if err := s.checkExists(ctx, s.materials, "material", item.MaterialID); err != nil {
			return nil, err
		}
	}

	if s.numerator != nil {
		number, err := numerator.PurchaseOrders.Next(ctx, s.numerator, time.Now())
		if err != nil {
			return nil, fmt.Errorf("generate number: %w", err)
		}
		po.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, po); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created",
		"id", po.ID,
		"number", po.Number,
		"total", po.TotalAmount.String())
	return po, nil
}

// GetByID retrieves a purchase order with its items, deleted or not.
func (s *Service) GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, poID)
}

// List retrieves purchase orders, optionally restricted to one status.
func (s *Service) List(ctx context.Context, filter domain.ListFilter, status Status) (domain.ListResult[*PurchaseOrder], error) {
	if status == "" {
		return s.repo.List(ctx, filter)
	}
	if !status.IsValid() {
		return domain.ListResult[*PurchaseOrder]{}, apperror.NewValidation("invalid purchase order status").
			WithDetail("field", "status").
			WithDetail("value", string(status))
	}
	return s.repo.ListByStatus(ctx, status, filter)
}

// getActive loads a purchase order that is not in the trash.
func (s *Service) getActive(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.IsDeleted() {
		return nil, apperror.NewNotFound("purchase order", poID.String())
	}
	return po, nil
}

// mutate applies fn to an active purchase order and saves it with an
// optimistic version check.
func (s *Service) mutate(ctx context.Context, poID id.ID, fn func(po *PurchaseOrder) error) (*PurchaseOrder, error) {
	po, err := s.getActive(ctx, poID)
	if err != nil {
		return nil, err
	}
	if err := fn(po); err != nil {
		return nil, err
	}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// MarkOrdered moves a draft to ordered.
func (s *Service) MarkOrdered(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.mutate(ctx, poID, func(po *PurchaseOrder) error {
		return po.MarkOrdered(time.Now().UTC())
	})
}

// Cancel cancels a draft or ordered purchase order.
func (s *Service) Cancel(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.mutate(ctx, poID, func(po *PurchaseOrder) error {
		return po.Cancel(time.Now().UTC())
	})
}

// Pay records the payment method and time.
func (s *Service) Pay(ctx context.Context, poID id.ID, method string) (*PurchaseOrder, error) {
	return s.mutate(ctx, poID, func(po *PurchaseOrder) error {
		return po.Pay(method, time.Now().UTC())
	})
}

// ReceiveItems records delivered goods and adds them to stock. The batch
// is validated as a whole first; a rejected batch changes nothing.
func (s *Service) ReceiveItems(ctx context.Context, poID id.ID, receipts []Receipt) (*PurchaseOrder, []MaterialBalance, error) {
	po, err := s.getActive(ctx, poID)
	if err != nil {
		return nil, nil, err
	}

	lines, err := po.Receive(receipts, time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}

	for _, line := range stock.Aggregate(lines) {
		if err := s.checkExists(ctx, s.materials, "material", line.MaterialID); err != nil {
			return nil, nil, err
		}
	}

	var balances []MaterialBalance
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx = stock.WithSource(ctx, softdelete.PurchaseOrder, poID)
		balances = make([]MaterialBalance, 0, len(lines))

		// The version check makes concurrent receipts on the same purchase
		// order fail here, before any stock moves.
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		for _, line := range stock.Aggregate(lines) {
			qty, err := s.ledger.Receive(ctx, line.MaterialID, line.Quantity)
			if err != nil {
				return err
			}
			balances = append(balances, MaterialBalance{ID: line.MaterialID, Quantity: qty})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "purchase order items received",
		"id", po.ID,
		"lines", len(receipts),
		"status", po.Status)
	return po, balances, nil
}

// SoftDelete moves a purchase order to the trash. Stock is not affected.
func (s *Service) SoftDelete(ctx context.Context, poID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.MarkDeleted(ctx, poID, time.Now().UTC())
	})
	if err != nil {
		return err
	}
	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: string(softdelete.PurchaseOrder),
		EntityID:   poID,
		Action:     audit.ActionSoftDelete,
	})
	return nil
}

// Restore returns a deleted purchase order to the active set.
func (s *Service) Restore(ctx context.Context, poID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Unmark(ctx, poID)
	})
	if err != nil {
		return err
	}
	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: string(softdelete.PurchaseOrder),
		EntityID:   poID,
		Action:     audit.ActionRestore,
	})
	return nil
}

// Purge permanently removes a deleted purchase order. Received stock stays.
func (s *Service) Purge(ctx context.Context, poID id.ID) error {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return err
	}
	if !po.IsDeleted() {
		return apperror.NewInvalidState("purchase order", poID.String(), "purchase order must be soft-deleted before it can be purged")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.HardDelete(ctx, poID)
	})
	if err != nil {
		return err
	}
	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: string(softdelete.PurchaseOrder),
		EntityID:   poID,
		Action:     audit.ActionPurge,
		Payload:    map[string]any{"snapshot": po},
	})
	return nil
}

// ListDeleted projects deleted purchase orders into trash entries.
func (s *Service) ListDeleted(ctx context.Context) ([]softdelete.Entry, error) {
	items, err := s.repo.ListDeleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deleted purchase orders: %w", err)
	}
	return domain.TrashEntries(softdelete.PurchaseOrder, items), nil
}

// IsDeleted reports whether the purchase order is in the trash.
func (s *Service) IsDeleted(ctx context.Context, poID id.ID) (bool, error) {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return false, err
	}
	return po.IsDeleted(), nil
}
