// Package trash lists, restores and purges soft-deleted records across every
// collection.
package trash

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
	"atelier/pkg/logger"
)

var tracer = otel.Tracer("atelier/trash")

// DefaultFanoutLimit bounds concurrent collection queries.
const DefaultFanoutLimit = 4

// Collections holds one service per soft-deletable collection. Adding an
// EntityType without a field here fails the resolution test.
type Collections struct {
	Customers           softdelete.SoftDeletable
	Employees           softdelete.SoftDeletable
	Orders              softdelete.SoftDeletable
	Measurements        softdelete.SoftDeletable
	Styles              softdelete.SoftDeletable
	Jobs                softdelete.SoftDeletable
	Materials           softdelete.SoftDeletable
	ItemTypes           softdelete.SoftDeletable
	Suppliers           softdelete.SoftDeletable
	PurchaseOrders      softdelete.SoftDeletable
	Users               softdelete.SoftDeletable
	Notifications       softdelete.SoftDeletable
	FinanceTransactions softdelete.SoftDeletable
}

// Resolve maps an entity type to its collection.
func (c Collections) Resolve(t softdelete.EntityType) (softdelete.SoftDeletable, error) {
	switch t {
	case softdelete.Customer:
		return c.Customers, nil
	case softdelete.Employee:
		return c.Employees, nil
	case softdelete.Order:
		return c.Orders, nil
	case softdelete.Measurement:
		return c.Measurements, nil
	case softdelete.Style:
		return c.Styles, nil
	case softdelete.Job:
		return c.Jobs, nil
	case softdelete.Material:
		return c.Materials, nil
	case softdelete.ItemType:
		return c.ItemTypes, nil
	case softdelete.Supplier:
		return c.Suppliers, nil
	case softdelete.PurchaseOrder:
		return c.PurchaseOrders, nil
	case softdelete.User:
		return c.Users, nil
	case softdelete.Notification:
		return c.Notifications, nil
	case softdelete.FinanceTransaction:
		return c.FinanceTransactions, nil
	}
	return nil, fmt.Errorf("no collection for entity type %q", t)
}

// Result is a merged trash listing.
type Result struct {
	Entries []softdelete.Entry       `json:"entries"`
	Failed  []softdelete.EntityType `json:"failed,omitempty"`
}

// EmptyResult reports the outcome of emptying the trash.
type EmptyResult struct {
	Purged int `json:"purged"`
	Failed int `json:"failed"`
}

// Aggregator fans trash operations out to the collections.
type Aggregator struct {
	collections Collections
	limit       int
	journal     audit.Recorder
}

// NewAggregator validates that every entity type resolves to a service.
func NewAggregator(collections Collections, limit int, journal audit.Recorder) (*Aggregator, error) {
	for _, t := range softdelete.EntityTypes() {
		svc, err := collections.Resolve(t)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			return nil, fmt.Errorf("collection for entity type %q is not configured", t)
		}
	}
	if limit <= 0 {
		limit = DefaultFanoutLimit
	}
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Aggregator{collections: collections, limit: limit, journal: journal}, nil
}

// ListTrash merges deleted records of every collection, newest deletion
// first. A failing collection is reported in Result.Failed and does not hide
// the others.
func (a *Aggregator) ListTrash(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "trash.list")
	defer span.End()

	types := softdelete.EntityTypes()

	var (
		mu     sync.Mutex
		result Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)

	for _, t := range types {
		g.Go(func() error {
			entries, err := a.listCollection(gctx, t)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn(gctx, "trash collection query failed",
					"entity_type", t,
					"error", err)
				result.Failed = append(result.Failed, t)
				return nil
			}
			result.Entries = append(result.Entries, entries...)
			return nil
		})
	}
	// Collection errors are absorbed above; only cancellation surfaces.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	SortEntries(result.Entries)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i] < result.Failed[j] })

	span.SetAttributes(
		attribute.Int("trash.entries", len(result.Entries)),
		attribute.Int("trash.failed", len(result.Failed)),
	)
	if result.Entries == nil {
		result.Entries = []softdelete.Entry{}
	}
	return result, nil
}

func (a *Aggregator) listCollection(ctx context.Context, t softdelete.EntityType) ([]softdelete.Entry, error) {
	ctx, span := tracer.Start(ctx, "trash.list_collection")
	defer span.End()
	span.SetAttributes(attribute.String("trash.entity_type", string(t)))

	svc, err := a.collections.Resolve(t)
	if err != nil {
		return nil, err
	}

	entries, err := svc.ListDeleted(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for i := range entries {
		entries[i].EntityType = t
	}
	return entries, nil
}

// SortEntries orders entries by deletion time, newest first, then by id.
func SortEntries(entries []softdelete.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].DeletedAt.Equal(entries[j].DeletedAt) {
			return entries[i].DeletedAt.After(entries[j].DeletedAt)
		}
		return id.Less(entries[i].ID, entries[j].ID)
	})
}

// Restore dispatches a restore to the owning collection. Restoring an order
// consumes its materials again and may fail for lack of stock.
func (a *Aggregator) Restore(ctx context.Context, t softdelete.EntityType, entityID id.ID) error {
	svc, err := a.collections.Resolve(t)
	if err != nil {
		return apperror.NewValidation(err.Error())
	}
	return svc.Restore(ctx, entityID)
}

// Purge dispatches a purge to the owning collection.
func (a *Aggregator) Purge(ctx context.Context, t softdelete.EntityType, entityID id.ID) error {
	svc, err := a.collections.Resolve(t)
	if err != nil {
		return apperror.NewValidation(err.Error())
	}
	return svc.Purge(ctx, entityID)
}

// EmptyTrash purges every listed entry, continuing past failures.
func (a *Aggregator) EmptyTrash(ctx context.Context) (EmptyResult, error) {
	listing, err := a.ListTrash(ctx)
	if err != nil {
		return EmptyResult{}, err
	}

	var res EmptyResult
	for _, entry := range listing.Entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := a.Purge(ctx, entry.EntityType, entry.ID); err != nil {
			if errors.Is(err, context.Canceled) {
				return res, err
			}
			logger.FromContext(ctx).
				ForEntity(string(entry.EntityType), entry.ID).
				Errorw("purge during empty trash failed", "error", err)
			res.Failed++
			continue
		}
		res.Purged++
	}

	audit.Write(ctx, a.journal, audit.Entry{
		EntityType: "trash",
		Action:     audit.ActionEmptyTrash,
		Payload: map[string]any{
			"purged":            res.Purged,
			"failed":            res.Failed,
			"failedCollections": listing.Failed,
		},
	})
	return res, nil
}
