package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/id"
	"atelier/internal/domain/audit"
)

func TestAuditRecorder_SmallPayloadStaysPlain(t *testing.T) {
	rec, err := NewAuditRecorder(nil, 1024)
	require.NoError(t, err)

	row, err := rec.encode(audit.Entry{
		EntityType: "material",
		EntityID:   id.New(),
		Action:     audit.ActionConsume,
		Payload:    map[string]any{"delta": "-2.0000"},
	})
	require.NoError(t, err)

	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.Nil(t, row.PayloadCompressed)
	assert.JSONEq(t, `{"delta":"-2.0000"}`, string(row.Payload))
	assert.False(t, row.CreatedAt.IsZero())
}

func TestAuditRecorder_LargePayloadRoundTrip(t *testing.T) {
	rec, err := NewAuditRecorder(nil, 64)
	require.NoError(t, err)

	snapshot := strings.Repeat("linen ", 200)
	row, err := rec.encode(audit.Entry{
		EntityType: "order",
		EntityID:   id.New(),
		Action:     audit.ActionPurge,
		Payload:    map[string]any{"snapshot": snapshot},
	})
	require.NoError(t, err)

	assert.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Payload)
	assert.Less(t, len(row.PayloadCompressed), len(snapshot))

	payload, err := rec.decode(row)
	require.NoError(t, err)
	assert.Equal(t, snapshot, payload["snapshot"])
}

// fakeSavepoint records how a nested transaction was finished.
type fakeSavepoint struct {
	pgx.Tx
	execErr    error
	committed  bool
	rolledBack bool
}

func (f *fakeSavepoint) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeSavepoint) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeSavepoint) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeOuterTx struct {
	sp *fakeSavepoint
}

func (f fakeOuterTx) Begin(context.Context) (pgx.Tx, error) { return f.sp, nil }

func TestExecInSavepoint(t *testing.T) {
	ctx := context.Background()

	t.Run("success releases the savepoint", func(t *testing.T) {
		sp := &fakeSavepoint{}
		require.NoError(t, execInSavepoint(ctx, fakeOuterTx{sp: sp}, "INSERT", nil))
		assert.True(t, sp.committed)
		assert.False(t, sp.rolledBack)
	})

	t.Run("failure rolls back to the savepoint", func(t *testing.T) {
		insertErr := errors.New("value too long")
		sp := &fakeSavepoint{execErr: insertErr}

		err := execInSavepoint(ctx, fakeOuterTx{sp: sp}, "INSERT", nil)
		assert.ErrorIs(t, err, insertErr)
		assert.True(t, sp.rolledBack)
		assert.False(t, sp.committed)
	})
}
