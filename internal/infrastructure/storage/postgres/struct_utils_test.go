package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

type mockRecord struct {
	entity.BaseEntity
	Name     string         `db:"name" json:"name"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Lines    []string       `db:"-" json:"lines"`
}

func TestExtractDBColumns_SoftDeleteEnvelope(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	assert.Equal(t, []string{
		"id", "version", "created_at", "updated_at", "deleted", "deleted_at", "name", "quantity",
	}, cols)
}

func TestStructToMap_SoftDeleteEnvelope(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{
		BaseEntity: entity.BaseEntity{
			ID:      id.New(),
			Version: 5,
		},
		Name:     "Linen",
		Quantity: types.QuantityOf(3),
		Lines:    []string{"ignored"},
	}
	rec.MarkDeleted(now)

	m := StructToMap(&rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, true, m["deleted"])
	require.NotNil(t, m["deleted_at"])
	assert.Equal(t, now, *m["deleted_at"].(*time.Time))
	assert.Equal(t, "Linen", m["name"])
	assert.Equal(t, types.QuantityOf(3), m["quantity"])
	assert.NotContains(t, m, "lines")
}

func TestWithoutColumns(t *testing.T) {
	cols := []string{"id", "version", "name", "quantity"}

	assert.Equal(t, []string{"name"}, WithoutColumns(cols, "id", "version", "quantity"))
	assert.Equal(t, cols, WithoutColumns(cols))
}
