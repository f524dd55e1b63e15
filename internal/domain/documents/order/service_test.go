package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/internal/domain/catalogs/customer"
	"atelier/internal/domain/catalogs/material"
	"atelier/internal/domain/documents/order"
	"atelier/internal/domain/stock"
	"atelier/internal/infrastructure/storage/memory"
)

type fixture struct {
	svc       *order.Service
	materials *memory.MaterialRepo
	orders    *memory.OrderRepo
	customer  *customer.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	materials := memory.NewMaterialRepo()
	orders := memory.NewOrderRepo()
	customers := customer.NewService(memory.NewCustomerRepo(), tx.Direct{}, nil)

	c := customer.NewCustomer("Ada")
	require.NoError(t, customers.Create(context.Background(), c))

	svc := order.NewService(order.ServiceConfig{
		Repo:      orders,
		Ledger:    stock.NewLedger(materials, nil),
		Customers: customers,
		Numerator: memory.NewNumerator(),
	})
	return &fixture{svc: svc, materials: materials, orders: orders, customer: c}
}

func (f *fixture) addMaterial(t *testing.T, name string, qty int64) id.ID {
	t.Helper()
	m := material.NewMaterial(name, "m", types.QuantityOf(qty))
	require.NoError(t, f.materials.Create(context.Background(), m))
	return m.ID
}

func (f *fixture) quantity(t *testing.T, materialID id.ID) types.Quantity {
	t.Helper()
	m, err := f.materials.GetByID(context.Background(), materialID)
	require.NoError(t, err)
	return m.Quantity
}

func (f *fixture) newOrder(lines ...stock.Line) *order.Order {
	return order.NewOrder(f.customer.ID, lines...)
}

func line(materialID id.ID, qty int64) stock.Line {
	return stock.Line{MaterialID: materialID, Quantity: types.QuantityOf(qty)}
}

func TestCreate_ConsumesStockAndAssignsNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 4))
	require.NoError(t, f.svc.Create(ctx, o))

	assert.NotEmpty(t, o.Number)
	assert.Equal(t, types.QuantityOf(6), f.quantity(t, m))

	second := f.newOrder(line(m, 1))
	require.NoError(t, f.svc.Create(ctx, second))
	assert.NotEqual(t, o.Number, second.Number)
}

func TestCreate_InsufficientStockConsumesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addMaterial(t, "Linen", 10)
	b := f.addMaterial(t, "Silk", 1)

	err := f.svc.Create(ctx, f.newOrder(line(a, 4), line(b, 2)))
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	assert.Equal(t, types.QuantityOf(10), f.quantity(t, a))
	assert.Equal(t, types.QuantityOf(1), f.quantity(t, b))

	res, err := f.svc.List(ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestCreate_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := order.NewOrder(id.New(), line(m, 1))
	err := f.svc.Create(context.Background(), o)

	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, types.QuantityOf(10), f.quantity(t, m))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(stock.Line{MaterialID: m, Quantity: 0})
	err := f.svc.Create(context.Background(), o)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

// Material at 10, order consumes 4, an edit to 7 is rejected.
func TestUpdate_RejectedEditLeavesStockAndOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 4))
	require.NoError(t, f.svc.Create(ctx, o))
	require.Equal(t, types.QuantityOf(6), f.quantity(t, m))

	edited, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	edited.MaterialsUsed = []stock.Line{line(m, 7)}

	err = f.svc.Update(ctx, edited)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, err)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "7.0000", appErr.Details["requested"])
	assert.Equal(t, "6.0000", appErr.Details["available"])
	assert.Equal(t, types.QuantityOf(6), f.quantity(t, m))

	stored, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []stock.Line{line(m, 4)}, stored.MaterialsUsed)

	// A smaller raise only consumes the difference.
	stored.MaterialsUsed = []stock.Line{line(m, 5)}
	require.NoError(t, f.svc.Update(ctx, stored))
	assert.Equal(t, types.QuantityOf(5), f.quantity(t, m))
}

func TestUpdate_MovesOnlyTheDifference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addMaterial(t, "Linen", 10)
	b := f.addMaterial(t, "Silk", 10)

	o := f.newOrder(line(a, 4), line(b, 2))
	require.NoError(t, f.svc.Create(ctx, o))

	o.MaterialsUsed = []stock.Line{line(a, 1)}
	require.NoError(t, f.svc.Update(ctx, o))

	assert.Equal(t, types.QuantityOf(9), f.quantity(t, a))
	assert.Equal(t, types.QuantityOf(10), f.quantity(t, b))
}

func TestUpdate_StaleVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 1))
	require.NoError(t, f.svc.Create(ctx, o))

	stale, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)

	o.MaterialsUsed = []stock.Line{line(m, 2)}
	require.NoError(t, f.svc.Update(ctx, o))

	stale.MaterialsUsed = []stock.Line{line(m, 5)}
	err = f.svc.Update(ctx, stale)
	assert.True(t, apperror.IsConcurrentModification(err))
	assert.Equal(t, types.QuantityOf(8), f.quantity(t, m))
}

func TestUpdate_DeletedOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 1))
	require.NoError(t, f.svc.Create(ctx, o))
	require.NoError(t, f.svc.SoftDelete(ctx, o.ID))

	deleted, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	deleted.MaterialsUsed = []stock.Line{line(m, 3)}

	err = f.svc.Update(ctx, deleted)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, types.QuantityOf(10), f.quantity(t, m))
}

// Deleting releases, restoring re-consumes.
func TestSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 4))
	require.NoError(t, f.svc.Create(ctx, o))
	require.Equal(t, types.QuantityOf(6), f.quantity(t, m))

	require.NoError(t, f.svc.SoftDelete(ctx, o.ID))
	assert.Equal(t, types.QuantityOf(10), f.quantity(t, m))

	entries, err := f.svc.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, o.ID, entries[0].ID)

	err = f.svc.SoftDelete(ctx, o.ID)
	assert.True(t, apperror.IsNotFound(err), "deleting twice")
	assert.Equal(t, types.QuantityOf(10), f.quantity(t, m))

	require.NoError(t, f.svc.Restore(ctx, o.ID))
	assert.Equal(t, types.QuantityOf(6), f.quantity(t, m))

	deleted, err := f.svc.IsDeleted(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRestore_InsufficientStockKeepsOrderInTrash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 4))
	require.NoError(t, f.svc.Create(ctx, o))
	require.NoError(t, f.svc.SoftDelete(ctx, o.ID))

	require.NoError(t, f.materials.SetQuantity(ctx, m, types.QuantityOf(3)))

	err := f.svc.Restore(ctx, o.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, types.QuantityOf(3), f.quantity(t, m))

	deleted, err := f.svc.IsDeleted(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRestoreAndPurge_InvalidState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 1))
	require.NoError(t, f.svc.Create(ctx, o))

	assert.True(t, apperror.HasCode(f.svc.Restore(ctx, o.ID), apperror.CodeInvalidState))
	assert.True(t, apperror.HasCode(f.svc.Purge(ctx, o.ID), apperror.CodeInvalidState))

	assert.True(t, apperror.IsNotFound(f.svc.Restore(ctx, id.New())))
	assert.True(t, apperror.IsNotFound(f.svc.Purge(ctx, id.New())))
}

func TestPurge_DoesNotTouchStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	o := f.newOrder(line(m, 4))
	require.NoError(t, f.svc.Create(ctx, o))
	require.NoError(t, f.svc.SoftDelete(ctx, o.ID))
	require.NoError(t, f.svc.Purge(ctx, o.ID))

	assert.Equal(t, types.QuantityOf(10), f.quantity(t, m))
	_, err := f.svc.GetByID(ctx, o.ID)
	assert.True(t, apperror.IsNotFound(err))
}

// On-hand plus what active orders hold stays equal to the initial stock.
func TestStockConservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 20)

	held := func() types.Quantity {
		res, err := f.orders.List(ctx, domain.DefaultListFilter())
		require.NoError(t, err)
		var total types.Quantity
		for _, o := range res.Items {
			for _, l := range o.MaterialsUsed {
				total += l.Quantity
			}
		}
		return total
	}
	check := func() {
		t.Helper()
		assert.Equal(t, types.QuantityOf(20), f.quantity(t, m)+held())
	}

	a := f.newOrder(line(m, 5))
	require.NoError(t, f.svc.Create(ctx, a))
	check()

	b := f.newOrder(line(m, 3), line(m, 2))
	require.NoError(t, f.svc.Create(ctx, b))
	check()

	a.MaterialsUsed = []stock.Line{line(m, 8)}
	require.NoError(t, f.svc.Update(ctx, a))
	check()

	_ = f.svc.Create(ctx, f.newOrder(line(m, 50)))
	check()

	require.NoError(t, f.svc.SoftDelete(ctx, b.ID))
	check()

	require.NoError(t, f.svc.Restore(ctx, b.ID))
	check()
}

func TestListByCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, "Linen", 10)

	require.NoError(t, f.svc.Create(ctx, f.newOrder(line(m, 1))))
	require.NoError(t, f.svc.Create(ctx, f.newOrder(line(m, 1))))

	res, err := f.svc.ListByCustomer(ctx, f.customer.ID, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	res, err = f.svc.ListByCustomer(ctx, id.New(), domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}
