package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/catalogs/material"
	"atelier/internal/infrastructure/storage/postgres"
)

// MaterialRepo implements material.Repository. Quantity is read-only for
// Update; stock changes go through single conditional statements.
type MaterialRepo struct {
	*BaseCatalogRepo[*material.Material]
}

var _ material.Repository = (*MaterialRepo)(nil)

// NewMaterialRepo creates the materials repository.
func NewMaterialRepo(txm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[material.Material](txm, Config[*material.Material]{
			TableName:    "materials",
			EntityName:   "material",
			SearchCols:   []string{"name", "type", "color"},
			ReadOnlyCols: []string{"quantity"},
		}),
	}
}

// Decrement subtracts qty when the material is active and holds enough.
func (r *MaterialRepo) Decrement(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, bool, error) {
	sql, args, err := r.buildDecrement(materialID, qty).ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build decrement: %w", err)
	}

	var remaining types.Quantity
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("decrement material: %w", err)
	}
	return remaining, true, nil
}

func (r *MaterialRepo) buildDecrement(materialID id.ID, qty types.Quantity) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.tableName).
		Set("quantity", squirrel.Expr("quantity - ?", qty)).
		Where(squirrel.Eq{"id": materialID}).
		Where(squirrel.Eq{"deleted": false}).
		Where(squirrel.Expr("quantity >= ?", qty)).
		Suffix("RETURNING quantity")
}

// LockActive takes the row lock on an active material for the rest of the
// transaction.
func (r *MaterialRepo) LockActive(ctx context.Context, materialID id.ID) error {
	sql, args, err := r.buildLockActive(materialID).ToSql()
	if err != nil {
		return fmt.Errorf("build material lock: %w", err)
	}

	var locked id.ID
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound("material", materialID.String())
	}
	if err != nil {
		return fmt.Errorf("lock material: %w", err)
	}
	return nil
}

func (r *MaterialRepo) buildLockActive(materialID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select("id").
		From(r.tableName).
		Where(squirrel.Eq{"id": materialID}).
		Where(squirrel.Eq{"deleted": false}).
		Suffix("FOR UPDATE")
}

// Increment adds qty. Deleted materials still hold physical stock, so the
// deleted flag is not checked.
func (r *MaterialRepo) Increment(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, error) {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("quantity", squirrel.Expr("quantity + ?", qty)).
		Where(squirrel.Eq{"id": materialID}).
		Suffix("RETURNING quantity").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build increment: %w", err)
	}

	var total types.Quantity
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NewNotFound("material", materialID.String())
	}
	if err != nil {
		return 0, fmt.Errorf("increment material: %w", err)
	}
	return total, nil
}

// SetQuantity overwrites the quantity of an active material.
func (r *MaterialRepo) SetQuantity(ctx context.Context, materialID id.ID, qty types.Quantity) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("quantity", qty).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": materialID}).
		Where(squirrel.Eq{"deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set quantity: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set material quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("material", materialID.String())
	}
	return nil
}

// ListLowStock returns active materials at or below their threshold.
func (r *MaterialRepo) ListLowStock(ctx context.Context) ([]*material.Material, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deleted": false}).
		Where(squirrel.Expr("quantity <= low_stock_threshold")).
		OrderBy("name ASC", "id ASC")
	return r.FindMany(ctx, q)
}
