package catalog_repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/internal/domain/catalogs/material"
)

type testRecord struct {
	entity.BaseEntity
	Name string `db:"name"`
}

func (r *testRecord) Validate(context.Context) error { return nil }

func (r *testRecord) DisplayFields() map[string]any { return map[string]any{"name": r.Name} }

func newTestRepo() *BaseCatalogRepo[*testRecord] {
	return NewBaseCatalogRepo[testRecord](nil, Config[*testRecord]{
		TableName:  "test_table",
		EntityName: "test",
		SearchCols: []string{"name"},
	})
}

func TestBaseCatalogRepo_UpdateColumnsSkipEnvelope(t *testing.T) {
	repo := newTestRepo()
	assert.Equal(t, []string{"updated_at", "name"}, repo.updateCols)
}

func TestBaseCatalogRepo_BuildUpdateIsConditional(t *testing.T) {
	repo := newTestRepo()
	rec := &testRecord{BaseEntity: entity.NewBaseEntity(), Name: "x"}
	now := time.Now().UTC()

	sql, args, err := repo.buildUpdate(rec, now).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE test_table SET name = $1, updated_at = $2, version = version + 1 WHERE id = $3 AND version = $4 AND deleted = $5",
		sql)
	assert.Equal(t, []any{"x", now, rec.ID.String(), rec.Version, false}, args)
}

func TestBaseCatalogRepo_BuildMarkDeleted(t *testing.T) {
	repo := newTestRepo()
	entityID := id.New()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	sql, args, err := repo.buildMarkDeleted(entityID, at).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE test_table SET deleted = $1, deleted_at = $2, updated_at = $3 WHERE id = $4 AND deleted = $5",
		sql)
	assert.Equal(t, []any{true, at, at, entityID.String(), false}, args)
}

func TestBaseCatalogRepo_BuildUnmark(t *testing.T) {
	repo := newTestRepo()
	entityID := id.New()
	now := time.Now().UTC()

	sql, args, err := repo.buildUnmark(entityID, now).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE test_table SET deleted = $1, deleted_at = $2, updated_at = $3 WHERE id = $4 AND deleted = $5",
		sql)
	assert.Equal(t, []any{false, nil, now, entityID.String(), true}, args)
}

func TestBaseCatalogRepo_BuildHardDeleteRequiresDeleted(t *testing.T) {
	repo := newTestRepo()
	entityID := id.New()

	sql, args, err := repo.buildHardDelete(entityID).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM test_table WHERE id = $1 AND deleted = $2", sql)
	assert.Equal(t, []any{entityID.String(), true}, args)
}

func TestBaseCatalogRepo_BuildList(t *testing.T) {
	repo := newTestRepo()

	t.Run("active by default", func(t *testing.T) {
		q, err := repo.buildList(domain.ListFilter{}, nil)
		require.NoError(t, err)
		sql, args, err := q.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "WHERE deleted = $1")
		assert.Equal(t, []any{false}, args)
	})

	t.Run("search", func(t *testing.T) {
		q, err := repo.buildList(domain.ListFilter{Search: "silk"}, nil)
		require.NoError(t, err)
		sql, args, err := q.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "WHERE deleted = $1 AND (name ILIKE $2)")
		assert.Equal(t, []any{false, "%silk%"}, args)
	})

	t.Run("deleted", func(t *testing.T) {
		q, err := repo.buildList(domain.ListFilter{Deleted: true}, nil)
		require.NoError(t, err)
		_, args, err := q.ToSql()
		require.NoError(t, err)
		assert.Equal(t, []any{true}, args)
	})
}

func TestBaseCatalogRepo_ParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	cases := map[string]string{
		"":            "created_at DESC",
		"name":        "name ASC",
		"+name":       "name ASC",
		"-created_at": "created_at DESC",
	}
	for in, want := range cases {
		got, err := repo.parseOrderBy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := repo.parseOrderBy("name; DROP TABLE test_table")
	assert.Error(t, err)
}

func TestMaterialRepo_BuildDecrementGuardsStock(t *testing.T) {
	repo := NewMaterialRepo(nil)
	materialID := id.New()
	qty := types.QuantityOf(3)

	sql, args, err := repo.buildDecrement(materialID, qty).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE materials SET quantity = quantity - $1 WHERE id = $2 AND deleted = $3 AND quantity >= $4 RETURNING quantity",
		sql)
	// Valuers in squirrel conditions are rendered through Value().
	assert.Equal(t, []any{qty, materialID.String(), false, qty}, args)
}

func TestMaterialRepo_BuildLockActive(t *testing.T) {
	repo := NewMaterialRepo(nil)
	materialID := id.New()

	sql, args, err := repo.buildLockActive(materialID).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM materials WHERE id = $1 AND deleted = $2 FOR UPDATE", sql)
	assert.Equal(t, []any{materialID.String(), false}, args)
}

func TestMaterialRepo_UpdateNeverWritesQuantity(t *testing.T) {
	repo := NewMaterialRepo(nil)
	assert.NotContains(t, repo.updateCols, "quantity")

	m := material.NewMaterial("Linen", "m", types.QuantityOf(5))
	sql, _, err := repo.buildUpdate(m, time.Now()).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "quantity =")
}
