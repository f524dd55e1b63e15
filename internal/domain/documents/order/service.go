package order

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

// CustomerChecker reports whether an active customer exists.
type CustomerChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}

// Service provides business operations for orders. Every path that changes
// the set of active order lines moves the same quantities through the ledger.
type Service struct {
	repo      Repository
	ledger    *stock.Ledger
	customers CustomerChecker
	numerator numerator.Generator
	txManager tx.Manager
	journal   audit.Recorder
}

// ServiceConfig wires the order service.
type ServiceConfig struct {
	Repo      Repository
	Ledger    *stock.Ledger
	Customers CustomerChecker
	Numerator numerator.Generator
	TxManager tx.Manager
	Journal   audit.Recorder
}

var _ softdelete.SoftDeletable = (*Service)(nil)

// NewService creates a new order service.
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
		customers: cfg.Customers,
		numerator: cfg.Numerator,
		txManager: txm,
		journal:   journal,
	}
}

func (s *Service) checkCustomer(ctx context.Context, customerID id.ID) error {
	if s.customers == nil {
		return nil
	}
	ok, err := s.customers.Exists(ctx, customerID)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if !ok {
		return apperror.NewNotFound("customer", customerID.String())
	}
	return nil
}

// Create consumes the order's materials and stores it. Nothing is consumed
// if any line lacks stock.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkCustomer(ctx, o.CustomerID); err != nil {
		return err
	}

	if o.Number == "" && s.numerator != nil {
		number, err := numerator.Orders.Next(ctx, s.numerator, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		o.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx = stock.WithSource(ctx, softdelete.Order, o.ID)

		if err := s.ledger.ConsumeAll(ctx, o.MaterialsUsed); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, o); err != nil {
			s.ledger.ReleaseAll(ctx, o.MaterialsUsed)
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order created",
		"id", o.ID,
		"number", o.Number,
		"lines", len(o.MaterialsUsed))
	return nil
}

// GetByID retrieves an order with its lines, deleted or not.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// Update replaces an active order. Stock moves by the per-material
// difference between the stored and the submitted lines; a rejected update
// leaves both stock and the stored order untouched. A material whose line
// grows must have the new line total on hand.
func (s *Service) Update(ctx context.Context, o *Order) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	if current.IsDeleted() {
		return apperror.NewNotFound("order", o.ID.String())
	}
	if current.Version != o.Version {
		return apperror.NewConcurrentModification("order", o.ID.String())
	}
	if current.CustomerID != o.CustomerID {
		if err := s.checkCustomer(ctx, o.CustomerID); err != nil {
			return err
		}
	}

	o.CreatedAt = current.CreatedAt
	if o.Number == "" {
		o.Number = current.Number
	}
	if err := s.checkRaisedLines(ctx, current.MaterialsUsed, o.MaterialsUsed); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx = stock.WithSource(ctx, softdelete.Order, o.ID)

		if err := s.ledger.ApplyDiff(ctx, current.MaterialsUsed, o.MaterialsUsed); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			if revertErr := s.ledger.ApplyDiff(ctx, o.MaterialsUsed, current.MaterialsUsed); revertErr != nil {
				logger.Error(ctx, "revert stock after failed order update",
					"id", o.ID,
					"error", revertErr)
			}
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
}

// checkRaisedLines requires the new total of every material whose line grew
// to be on hand, the same bar a fresh order with those lines would face.
func (s *Service) checkRaisedLines(ctx context.Context, oldLines, newLines []stock.Line) error {
	increases, _ := stock.Diff(oldLines, newLines)
	if len(increases) == 0 {
		return nil
	}

	totals := make(map[id.ID]types.Quantity)
	for _, line := range stock.Aggregate(newLines) {
		totals[line.MaterialID] = line.Quantity
	}
	for _, line := range increases {
		if err := s.ledger.EnsureAvailable(ctx, line.MaterialID, totals[line.MaterialID]); err != nil {
			return err
		}
	}
	return nil
}

// List retrieves active orders, or deleted ones when filter.Deleted is set.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}

// ListByCustomer retrieves the orders of one customer.
func (s *Service) ListByCustomer(ctx context.Context, customerID id.ID, filter domain.ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.ListByCustomer(ctx, customerID, filter)
}

// SoftDelete moves an order to the trash and returns its materials to stock.
func (s *Service) SoftDelete(ctx context.Context, orderID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx = stock.WithSource(ctx, softdelete.Order, orderID)

		if err := s.repo.MarkDeleted(ctx, orderID, time.Now().UTC()); err != nil {
			return err
		}
		// Lines are read after the mark: a deleted order can no longer be updated.
		deleted, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load deleted order: %w", err)
		}
		s.ledger.ReleaseAll(ctx, deleted.MaterialsUsed)
		return nil
	})
	if err != nil {
		return err
	}

	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: string(softdelete.Order),
		EntityID:   orderID,
		Action:     audit.ActionSoftDelete,
	})
	return nil
}

// Restore re-consumes the order's materials and returns it to the active
// set. When stock is short the order stays in the trash.
func (s *Service) Restore(ctx context.Context, orderID id.ID) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.IsDeleted() {
		return apperror.NewInvalidState("order", orderID.String(), "order is not deleted")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx = stock.WithSource(ctx, softdelete.Order, orderID)

		if err := s.ledger.ConsumeAll(ctx, o.MaterialsUsed); err != nil {
			return err
		}
		if err := s.repo.Unmark(ctx, orderID); err != nil {
			s.ledger.ReleaseAll(ctx, o.MaterialsUsed)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: string(softdelete.Order),
		EntityID:   orderID,
		Action:     audit.ActionRestore,
	})
	return nil
}

// Purge permanently removes a deleted order. Its materials were already
// released when it was deleted.
func (s *Service) Purge(ctx context.Context, orderID id.ID) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.IsDeleted() {
		return apperror.NewInvalidState("order", orderID.String(), "order must be soft-deleted before it can be purged")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.HardDelete(ctx, orderID)
	})
	if err != nil {
		return err
	}

	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: string(softdelete.Order),
		EntityID:   orderID,
		Action:     audit.ActionPurge,
		Payload:    map[string]any{"snapshot": o},
	})
	return nil
}

// ListDeleted projects deleted orders into trash entries.
func (s *Service) ListDeleted(ctx context.Context) ([]softdelete.Entry, error) {
	items, err := s.repo.ListDeleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deleted orders: %w", err)
	}
	return domain.TrashEntries(softdelete.Order, items), nil
}

// IsDeleted reports whether the order is in the trash.
func (s *Service) IsDeleted(ctx context.Context, orderID id.ID) (bool, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	return o.IsDeleted(), nil
}
