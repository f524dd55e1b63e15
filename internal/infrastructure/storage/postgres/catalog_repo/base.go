// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/domain"
	"atelier/internal/infrastructure/storage/postgres"
)

// immutableCols are never written by Update.
var immutableCols = []string{"id", "version", "created_at", "deleted", "deleted_at"}

// BaseCatalogRepo provides CRUD and the soft-delete transitions for one
// table. Every lifecycle transition is a single conditional statement;
// a zero-row result is disambiguated by probing the row.
type BaseCatalogRepo[T entity.Record] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	updateCols []string
	searchCols []string
	newFn      func() T
}

// Config describes the table behind a repository.
type Config[T entity.Record] struct {
	TableName  string
	EntityName string
	// SearchCols are matched with ILIKE by ListFilter.Search.
	SearchCols []string
	// ReadOnlyCols are excluded from Update in addition to the envelope.
	ReadOnlyCols []string
	NewFn        func() T
}

// NewBaseCatalogRepo creates a repository; columns come from T's db tags.
func NewBaseCatalogRepo[E any, T interface {
	*E
	entity.Record
}](txm *postgres.TxManager, cfg Config[T]) *BaseCatalogRepo[T] {
	cols := postgres.ExtractDBColumns[E]()
	newFn := cfg.NewFn
	if newFn == nil {
		newFn = func() T { return T(new(E)) }
	}
	entityName := cfg.EntityName
	if entityName == "" {
		entityName = cfg.TableName
	}
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  cfg.TableName,
		entityName: entityName,
		selectCols: cols,
		updateCols: postgres.WithoutColumns(cols, append(append([]string{}, immutableCols...), cfg.ReadOnlyCols...)...),
		searchCols: cfg.SearchCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction in ctx or the pool.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Columns returns the selected columns in struct order.
func (r *BaseCatalogRepo[T]) Columns() []string {
	return r.selectCols
}

// TableName returns the backing table.
func (r *BaseCatalogRepo[T]) TableName() string {
	return r.tableName
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, e T) error {
	sql, args, err := r.buildInsert(e).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict(fmt.Sprintf("%s already exists", r.entityName)).
				WithDetail("id", e.Base().ID.String()).
				WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) buildInsert(e T) squirrel.InsertBuilder {
	data := postgres.StructToMap(e)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return r.Builder().Insert(r.tableName).SetMap(filtered)
}

// Update modifies an active entity with optimistic locking and bumps the
// version on e.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, e T) error {
	base := e.Base()
	now := time.Now().UTC()

	sql, args, err := r.buildUpdate(e, now).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		exists, deleted, err := r.probe(ctx, base.ID)
		if err != nil {
			return err
		}
		if !exists || deleted {
			return apperror.NewNotFound(r.entityName, base.ID.String())
		}
		return apperror.NewConcurrentModification(r.entityName, base.ID.String())
	}

	base.Version++
	base.UpdatedAt = now
	return nil
}

func (r *BaseCatalogRepo[T]) buildUpdate(e T, now time.Time) squirrel.UpdateBuilder {
	data := postgres.StructToMap(e)
	base := e.Base()

	filtered := make(map[string]any, len(r.updateCols))
	for _, col := range r.updateCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	filtered["updated_at"] = now

	return r.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": base.ID}).
		Where(squirrel.Eq{"version": base.Version}).
		Where(squirrel.Eq{"deleted": false})
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID regardless of its deleted flag.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1), entityID.String())
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (T, error) {
	e := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			var zero T
			return zero, apperror.NewNotFound(r.entityName, ref)
		}
		return e, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return e, nil
}

// FindMany executes a SELECT query and scans every row.
func (r *BaseCatalogRepo[T]) FindMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]T, 0)
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return items, nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return r.ListWhere(ctx, filter, nil)
}

// ListWhere is List with an extra condition.
func (r *BaseCatalogRepo[T]) ListWhere(ctx context.Context, filter domain.ListFilter, extra squirrel.Sqlizer) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q, err := r.buildList(filter, extra)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	result.Items, err = r.FindMany(ctx, q)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (r *BaseCatalogRepo[T]) buildList(filter domain.ListFilter, extra squirrel.Sqlizer) (squirrel.SelectBuilder, error) {
	q := r.baseSelect().Where(squirrel.Eq{"deleted": filter.Deleted})

	if filter.Search != "" && len(r.searchCols) > 0 {
		pattern := "%" + filter.Search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if extra != nil {
		q = q.Where(extra)
	}
	return q, nil
}

// ListDeleted returns every deleted record, newest deletion first.
func (r *BaseCatalogRepo[T]) ListDeleted(ctx context.Context) ([]T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deleted": true}).
		OrderBy("deleted_at DESC", "id ASC")
	return r.FindMany(ctx, q)
}

// MarkDeleted flips an active record to deleted.
func (r *BaseCatalogRepo[T]) MarkDeleted(ctx context.Context, entityID id.ID, at time.Time) error {
	sql, args, err := r.buildMarkDeleted(entityID, at).ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseCatalogRepo[T]) buildMarkDeleted(entityID id.ID, at time.Time) squirrel.UpdateBuilder {
	at = at.UTC()
	return r.Builder().
		Update(r.tableName).
		Set("deleted", true).
		Set("deleted_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deleted": false})
}

// Unmark flips a deleted record back to active.
func (r *BaseCatalogRepo[T]) Unmark(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.buildUnmark(entityID, time.Now().UTC()).ToSql()
	if err != nil {
		return fmt.Errorf("build restore: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("restore %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return r.explainMiss(ctx, entityID, fmt.Sprintf("%s is not deleted", r.entityName))
	}
	return nil
}

func (r *BaseCatalogRepo[T]) buildUnmark(entityID id.ID, now time.Time) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.tableName).
		Set("deleted", false).
		Set("deleted_at", nil).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deleted": true})
}

// HardDelete physically removes a deleted record.
func (r *BaseCatalogRepo[T]) HardDelete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.buildHardDelete(entityID).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict(fmt.Sprintf("%s is still referenced by other records", r.entityName)).
				WithDetail("entity", r.entityName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return r.explainMiss(ctx, entityID, fmt.Sprintf("%s must be soft-deleted before it can be purged", r.entityName))
	}
	return nil
}

func (r *BaseCatalogRepo[T]) buildHardDelete(entityID id.ID) squirrel.DeleteBuilder {
	return r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deleted": true})
}

// explainMiss maps a zero-row transition to NotFound or InvalidState.
func (r *BaseCatalogRepo[T]) explainMiss(ctx context.Context, entityID id.ID, invalidMsg string) error {
	exists, _, err := r.probe(ctx, entityID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return apperror.NewInvalidState(r.entityName, entityID.String(), invalidMsg)
}

// probe reports whether the row exists and its deleted flag.
func (r *BaseCatalogRepo[T]) probe(ctx context.Context, entityID id.ID) (exists, deleted bool, err error) {
	sql, args, err := r.Builder().
		Select("deleted").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return false, false, fmt.Errorf("build probe: %w", err)
	}

	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("probe %s: %w", r.tableName, err)
	}
	return true, deleted, nil
}

// Exists reports whether an active record has the id.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	exists, deleted, err := r.probe(ctx, entityID)
	if err != nil {
		return false, err
	}
	return exists && !deleted, nil
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}

	if orderBy == "" {
		return "created_at DESC", nil
	}

	// Support "-field" for DESC.
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok || field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
