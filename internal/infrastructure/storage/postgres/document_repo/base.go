// Package document_repo provides PostgreSQL implementations for document
// repositories. A document is a header row plus a child table of lines that
// is rewritten together with the header.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/infrastructure/storage/postgres/catalog_repo"
)

// BaseDocumentRepo adds line-table helpers to the catalog repository.
type BaseDocumentRepo[T entity.Record] struct {
	*catalog_repo.BaseCatalogRepo[T]

	linesTable string
	// parentCol references the header id in the lines table.
	parentCol string
}

// GetByNumber retrieves a document header by its number.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	q := r.Builder().
		Select(r.Columns()...).
		From(r.TableName()).
		Where(squirrel.Eq{"number": number}).
		Limit(1)
	return r.FindOne(ctx, q, number)
}

// replaceLines deletes the existing lines of a document and inserts rows.
func (r *BaseDocumentRepo[T]) replaceLines(ctx context.Context, docID id.ID, cols []string, rows [][]any) error {
	querier := r.Querier(ctx)

	sql, args, err := r.Builder().
		Delete(r.linesTable).
		Where(squirrel.Eq{r.parentCol: docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	q := r.buildInsertLines(docID, cols, rows)
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

func (r *BaseDocumentRepo[T]) buildInsertLines(docID id.ID, cols []string, rows [][]any) squirrel.InsertBuilder {
	q := r.Builder().
		Insert(r.linesTable).
		Columns(append([]string{r.parentCol}, cols...)...)
	for _, row := range rows {
		q = q.Values(append([]any{docID}, row...)...)
	}
	return q
}

// selectLines scans the lines of the given documents into dst.
func (r *BaseDocumentRepo[T]) selectLines(ctx context.Context, dst any, docIDs []id.ID, cols []string, orderBy ...string) error {
	if len(docIDs) == 0 {
		return nil
	}

	sql, args, err := r.Builder().
		Select(append([]string{r.parentCol}, cols...)...).
		From(r.linesTable).
		Where(squirrel.Eq{r.parentCol: docIDs}).
		OrderBy(orderBy...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.Querier(ctx), dst, sql, args...); err != nil {
		return fmt.Errorf("get lines: %w", err)
	}
	return nil
}

// countActiveUsage counts active documents with a line for the material.
// extra narrows the header rows further.
func (r *BaseDocumentRepo[T]) countActiveUsage(ctx context.Context, materialID id.ID, extra squirrel.Sqlizer) (int, error) {
	sql, args, err := r.buildCountUsage(materialID, extra).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build usage count: %w", err)
	}

	var n int
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count material usage: %w", err)
	}
	return n, nil
}

func (r *BaseDocumentRepo[T]) buildCountUsage(materialID id.ID, extra squirrel.Sqlizer) squirrel.SelectBuilder {
	q := r.Builder().
		Select("COUNT(DISTINCT d.id)").
		From(r.TableName() + " d").
		Join(fmt.Sprintf("%s l ON l.%s = d.id", r.linesTable, r.parentCol)).
		Where(squirrel.Eq{"d.deleted": false}).
		Where(squirrel.Eq{"l.material_id": materialID})
	if extra != nil {
		q = q.Where(extra)
	}
	return q
}

// groupByParent buckets line rows under their document. Every parent gets a
// non-nil slice, so a document without lines encodes as [].
func groupByParent[R, L any](parents []id.ID, rows []R, split func(R) (id.ID, L)) map[id.ID][]L {
	out := make(map[id.ID][]L, len(parents))
	for _, p := range parents {
		out[p] = make([]L, 0)
	}
	for _, row := range rows {
		parent, line := split(row)
		out[parent] = append(out[parent], line)
	}
	return out
}

func collectIDs[T entity.Record](items []T) []id.ID {
	ids := make([]id.ID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Base().ID)
	}
	return ids
}
