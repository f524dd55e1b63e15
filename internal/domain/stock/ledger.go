// Package stock adjusts material quantities on behalf of orders and
// purchase orders.
//
// Every adjustment is one atomic conditional write against the material
// row; there is no read-modify-write and no cached quantity.
package stock

import (
	"context"
	"fmt"
	"sort"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/catalogs/material"
	"atelier/internal/domain/softdelete"
	"atelier/pkg/logger"
)

// Line is one material reference with a quantity.
type Line struct {
	MaterialID id.ID          `db:"material_id" json:"material"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

type sourceKey struct{}

type source struct {
	entityType softdelete.EntityType
	entityID   id.ID
}

// WithSource tags adjustments made with ctx as caused by the given document.
func WithSource(ctx context.Context, entityType softdelete.EntityType, entityID id.ID) context.Context {
	return context.WithValue(ctx, sourceKey{}, source{entityType: entityType, entityID: entityID})
}

// Ledger performs stock adjustments.
type Ledger struct {
	materials material.Repository
	journal   audit.Recorder
}

// NewLedger creates a ledger over the material repository.
func NewLedger(materials material.Repository, journal audit.Recorder) *Ledger {
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Ledger{materials: materials, journal: journal}
}

// Consume removes qty from an active material, failing with
// InsufficientStock when the quantity would go negative.
func (l *Ledger) Consume(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, error) {
	if !qty.IsPositive() {
		return 0, apperror.NewValidation("quantity must be positive").
			WithDetail("materialId", materialID.String())
	}

	remaining, applied, err := l.materials.Decrement(ctx, materialID, qty)
	if err != nil {
		return 0, fmt.Errorf("consume material %s: %w", materialID, err)
	}
	if !applied {
		return 0, l.explainRejectedConsume(ctx, materialID, qty)
	}

	l.record(ctx, audit.ActionConsume, materialID, qty.Neg(), remaining)
	return remaining, nil
}

// explainRejectedConsume turns a zero-row decrement into NotFound or
// InsufficientStock.
func (l *Ledger) explainRejectedConsume(ctx context.Context, materialID id.ID, qty types.Quantity) error {
	m, err := l.materials.GetByID(ctx, materialID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("material", materialID.String())
		}
		return fmt.Errorf("probe material %s: %w", materialID, err)
	}
	if m.IsDeleted() {
		return apperror.NewNotFound("material", materialID.String())
	}
	return apperror.NewInsufficientStock(materialID.String(), m.Name, qty.String(), m.Quantity.String())
}

// EnsureAvailable fails with InsufficientStock unless an active material has
// at least qty on hand. It is a read-only check; Consume stays the atomic guard.
func (l *Ledger) EnsureAvailable(ctx context.Context, materialID id.ID, qty types.Quantity) error {
	m, err := l.materials.GetByID(ctx, materialID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("material", materialID.String())
		}
		return fmt.Errorf("probe material %s: %w", materialID, err)
	}
	if m.IsDeleted() {
		return apperror.NewNotFound("material", materialID.String())
	}
	if m.Quantity < qty {
		return apperror.NewInsufficientStock(materialID.String(), m.Name, qty.String(), m.Quantity.String())
	}
	return nil
}

// Release returns qty to a material. A material that no longer exists is
// logged and skipped: releasing never blocks the operation that triggers it.
func (l *Ledger) Release(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, error) {
	if !qty.IsPositive() {
		return 0, apperror.NewValidation("quantity must be positive").
			WithDetail("materialId", materialID.String())
	}

	total, err := l.materials.Increment(ctx, materialID, qty)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "release skipped: material no longer exists",
				"material_id", materialID,
				"quantity", qty.String(),
			)
			return 0, nil
		}
		return 0, fmt.Errorf("release material %s: %w", materialID, err)
	}

	l.record(ctx, audit.ActionRelease, materialID, qty, total)
	return total, nil
}

// Receive adds delivered stock to a material.
func (l *Ledger) Receive(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, error) {
	if !qty.IsPositive() {
		return 0, apperror.NewValidation("received quantity must be positive").
			WithDetail("materialId", materialID.String())
	}

	total, err := l.materials.Increment(ctx, materialID, qty)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, apperror.NewNotFound("material", materialID.String())
		}
		return 0, fmt.Errorf("receive material %s: %w", materialID, err)
	}

	l.record(ctx, audit.ActionReceive, materialID, qty, total)
	return total, nil
}

// ConsumeAll consumes every line or none. Lines for the same material are
// merged and materials are processed in id order.
func (l *Ledger) ConsumeAll(ctx context.Context, lines []Line) error {
	return l.consumeAll(ctx, Aggregate(lines))
}

func (l *Ledger) consumeAll(ctx context.Context, lines []Line) error {
	applied := make([]Line, 0, len(lines))
	for _, line := range lines {
		if _, err := l.Consume(ctx, line.MaterialID, line.Quantity); err != nil {
			l.releaseLines(ctx, applied)
			return err
		}
		applied = append(applied, line)
	}
	return nil
}

// ReleaseAll returns every line to stock.
func (l *Ledger) ReleaseAll(ctx context.Context, lines []Line) {
	l.releaseLines(ctx, Aggregate(lines))
}

func (l *Ledger) releaseLines(ctx context.Context, lines []Line) {
	for _, line := range lines {
		if _, err := l.Release(ctx, line.MaterialID, line.Quantity); err != nil {
			logger.Error(ctx, "release failed",
				"material_id", line.MaterialID,
				"quantity", line.Quantity.String(),
				"error", err,
			)
		}
	}
}

// ApplyDiff moves stock from the old set of lines to the new one.
// Increases are consumed first; if any fails, nothing is left applied.
// Decreases are released afterwards.
func (l *Ledger) ApplyDiff(ctx context.Context, oldLines, newLines []Line) error {
	increases, decreases := Diff(oldLines, newLines)
	if err := l.consumeAll(ctx, increases); err != nil {
		return err
	}
	l.releaseLines(ctx, decreases)
	return nil
}

func (l *Ledger) record(ctx context.Context, action audit.Action, materialID id.ID, delta, result types.Quantity) {
	payload := map[string]any{
		"delta":    delta.String(),
		"quantity": result.String(),
	}
	if src, ok := ctx.Value(sourceKey{}).(source); ok {
		payload["sourceType"] = string(src.entityType)
		payload["sourceId"] = src.entityID.String()
	}

	logger.Info(ctx, "stock adjusted",
		"action", action,
		"material_id", materialID,
		"delta", delta.String(),
		"quantity", result.String(),
	)
	audit.Write(ctx, l.journal, audit.Entry{
		EntityType: string(softdelete.Material),
		EntityID:   materialID,
		Action:     action,
		Payload:    payload,
	})
}

// Aggregate merges lines per material and orders them by material id.
func Aggregate(lines []Line) []Line {
	totals := make(map[id.ID]types.Quantity, len(lines))
	for _, line := range lines {
		totals[line.MaterialID] += line.Quantity
	}
	return sortedLines(totals)
}

// Diff splits the per-material change between two line sets into positive
// increases and positive decreases. Unchanged materials are omitted.
func Diff(oldLines, newLines []Line) (increases, decreases []Line) {
	delta := make(map[id.ID]types.Quantity)
	for _, line := range newLines {
		delta[line.MaterialID] += line.Quantity
	}
	for _, line := range oldLines {
		delta[line.MaterialID] -= line.Quantity
	}

	up := make(map[id.ID]types.Quantity)
	down := make(map[id.ID]types.Quantity)
	for materialID, d := range delta {
		switch {
		case d.IsPositive():
			up[materialID] = d
		case d.IsNegative():
			down[materialID] = d.Neg()
		}
	}
	return sortedLines(up), sortedLines(down)
}

func sortedLines(totals map[id.ID]types.Quantity) []Line {
	out := make([]Line, 0, len(totals))
	for materialID, qty := range totals {
		if qty.IsZero() {
			continue
		}
		out = append(out, Line{MaterialID: materialID, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return id.Less(out[i].MaterialID, out[j].MaterialID)
	})
	return out
}
