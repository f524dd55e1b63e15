package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "atelier/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert.
type mockQuerier struct {
	mu      sync.Mutex
	vals    map[string]int64
	calls   int
	lastSQL string
	err     error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{vals: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastSQL = sql
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	value := args[1].(int64)
	if strings.Contains(sql, "sys_sequences.current_val + EXCLUDED") {
		m.vals[key] += value
	} else {
		m.vals[key] = value
	}
	return &mockRow{val: m.vals[key]}
}

var period = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("PO")

	first, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)

	assert.Equal(t, "PO-2026-00001", first)
	assert.Equal(t, "PO-2026-00002", second)
	assert.Equal(t, 2, q.calls)
	assert.Contains(t, q.lastSQL, "INSERT INTO sys_sequences (key,current_val) VALUES ($1,$2)")
}

func TestGetNextNumber_CachedReservesRange(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("ORD")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 3}

	var got []string
	for i := 0; i < 4; i++ {
		num, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
		require.NoError(t, err)
		got = append(got, num)
	}

	assert.Equal(t, []string{"ORD-2026-00001", "ORD-2026-00002", "ORD-2026-00003", "ORD-2026-00004"}, got)
	assert.Equal(t, 2, q.calls, "one reservation per range")
}

func TestGetNextNumber_ResetPerYear(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("PO")

	_, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	num, err := svc.GetNextNumber(context.Background(), cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, "PO-2027-00001", num)
}

func TestGetNextNumber_Error(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection refused")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("PO"), nil, period)
	assert.ErrorContains(t, err, "strict next")
}

func TestSetNextNumber_DropsCachedRange(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	cfg := corenumerator.DefaultConfig("ORD")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(context.Background(), cfg, period, 100))

	num, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00101", num)
}

func TestSchemes(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)

	num, err := corenumerator.PurchaseOrders.Next(context.Background(), svc, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00001", num)

	num, err = corenumerator.Orders.Next(context.Background(), svc, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00001", num)
	assert.Equal(t, int64(20), q.vals["ORD_2026"], "orders reserve a block")
}
