package purchase_order_test

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
	"atelier/internal/domain/catalogs/material"
	"atelier/internal/domain/catalogs/supplier"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/domain/stock"
	"atelier/internal/infrastructure/storage/memory"
)

type fixture struct {
	svc       *purchase_order.Service
	materials *memory.MaterialRepo
	supplier  *supplier.Supplier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	materials := memory.NewMaterialRepo()
	materialService := material.NewService(material.ServiceConfig{Repo: materials})
	suppliers := supplier.NewService(memory.NewSupplierRepo(), tx.Direct{}, nil)

	s := supplier.NewSupplier("Mill")
	require.NoError(t, suppliers.Create(ctx, s))

	svc := purchase_order.NewService(purchase_order.ServiceConfig{
		Repo:      memory.NewPurchaseOrderRepo(),
		Ledger:    stock.NewLedger(materials, nil),
		Suppliers: suppliers,
		Materials: materialService,
		Numerator: memory.NewNumerator(),
	})
	return &fixture{svc: svc, materials: materials, supplier: s}
}

func (f *fixture) addMaterial(t *testing.T, qty int64) id.ID {
	t.Helper()
	m := material.NewMaterial("Wool", "m", types.QuantityOf(qty))
	require.NoError(t, f.materials.Create(context.Background(), m))
	return m.ID
}

func (f *fixture) quantity(t *testing.T, materialID id.ID) types.Quantity {
	t.Helper()
	m, err := f.materials.GetByID(context.Background(), materialID)
	require.NoError(t, err)
	return m.Quantity
}

func (f *fixture) ordered(t *testing.T, items ...purchase_order.Item) *purchase_order.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po, err := f.svc.Create(ctx, f.supplier.ID, items)
	require.NoError(t, err)
	po, err = f.svc.MarkOrdered(ctx, po.ID)
	require.NoError(t, err)
	return po
}

func item(materialID id.ID, qty int64, cost string) purchase_order.Item {
	return purchase_order.Item{
		MaterialID:      materialID,
		OrderedQuantity: types.QuantityOf(qty),
		UnitCost:        types.MustMoney(cost),
	}
}

func receipt(itemID id.ID, qty int64) purchase_order.Receipt {
	return purchase_order.Receipt{ItemID: itemID, Quantity: types.QuantityOf(qty)}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)

	po, err := f.svc.Create(ctx, f.supplier.ID, []purchase_order.Item{item(m, 4, "2.50"), item(m, 1, "1")})
	require.NoError(t, err)

	assert.Equal(t, purchase_order.StatusDraft, po.Status)
	assert.NotEmpty(t, po.Number)
	assert.True(t, po.TotalAmount.Equal(types.MustMoney("11")), po.TotalAmount.String())
	for _, it := range po.Items {
		assert.False(t, id.IsNil(it.ID))
		assert.True(t, it.ReceivedQuantity.IsZero())
	}
	assert.True(t, f.quantity(t, m).IsZero(), "creating a purchase order does not move stock")
}

func TestCreate_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)

	_, err := f.svc.Create(ctx, id.New(), []purchase_order.Item{item(m, 1, "1")})
	assert.True(t, apperror.IsNotFound(err), "unknown supplier")

	_, err = f.svc.Create(ctx, f.supplier.ID, []purchase_order.Item{item(id.New(), 1, "1")})
	assert.True(t, apperror.IsNotFound(err), "unknown material")

	_, err = f.svc.Create(ctx, f.supplier.ID, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Create(ctx, f.supplier.ID, []purchase_order.Item{item(m, 0, "1")})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

// Ordered 20, received 12 then 8.
func TestReceiveItems_Partial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 3)
	po := f.ordered(t, item(m, 20, "1"))
	itemID := po.Items[0].ID

	po, balances, err := f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(itemID, 12)})
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusOrdered, po.Status)
	assert.Equal(t, types.QuantityOf(12), po.Items[0].ReceivedQuantity)
	assert.Equal(t, []purchase_order.MaterialBalance{{ID: m, Quantity: types.QuantityOf(15)}}, balances)
	assert.Equal(t, types.QuantityOf(15), f.quantity(t, m))

	po, _, err = f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(itemID, 8)})
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusReceived, po.Status)
	assert.NotNil(t, po.ReceivedAt)
	assert.Equal(t, types.QuantityOf(20), po.Items[0].ReceivedQuantity)
	assert.Equal(t, types.QuantityOf(23), f.quantity(t, m))

	// One more unit after the order is complete is an over-receipt.
	_, _, err = f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(itemID, 1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeOverReceipt))
	assert.Equal(t, types.QuantityOf(23), f.quantity(t, m))

	stored, err := f.svc.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusReceived, stored.Status)
	assert.Equal(t, types.QuantityOf(20), stored.Items[0].ReceivedQuantity)
}

func TestReceiveItems_BatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addMaterial(t, 0)
	b := f.addMaterial(t, 0)
	po := f.ordered(t, item(a, 5, "1"), item(b, 5, "1"))

	_, _, err := f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{
		receipt(po.Items[0].ID, 5),
		receipt(po.Items[1].ID, 6),
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOverReceipt, appErr.Code)
	assert.Equal(t, po.Items[1].ID.String(), appErr.Details["itemId"])

	assert.True(t, f.quantity(t, a).IsZero())
	assert.True(t, f.quantity(t, b).IsZero())

	stored, err := f.svc.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].ReceivedQuantity.IsZero())
}

func TestReceiveItems_DuplicateLinesAreSummed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)
	po := f.ordered(t, item(m, 5, "1"))
	itemID := po.Items[0].ID

	_, _, err := f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(itemID, 3), receipt(itemID, 3)})
	assert.True(t, apperror.HasCode(err, apperror.CodeOverReceipt))

	po, _, err = f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(itemID, 2), receipt(itemID, 3)})
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusReceived, po.Status)
	assert.Equal(t, types.QuantityOf(5), f.quantity(t, m))
}

func TestReceiveItems_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)

	draft, err := f.svc.Create(ctx, f.supplier.ID, []purchase_order.Item{item(m, 5, "1")})
	require.NoError(t, err)
	_, _, err = f.svc.ReceiveItems(ctx, draft.ID, []purchase_order.Receipt{receipt(draft.Items[0].ID, 1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	po := f.ordered(t, item(m, 5, "1"))

	_, _, err = f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(id.New(), 1)})
	assert.True(t, apperror.IsNotFound(err), "unknown item")

	_, _, err = f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(po.Items[0].ID, 0)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, _, err = f.svc.ReceiveItems(ctx, po.ID, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, _, err = f.svc.ReceiveItems(ctx, id.New(), []purchase_order.Receipt{receipt(po.Items[0].ID, 1)})
	assert.True(t, apperror.IsNotFound(err), "unknown purchase order")

	assert.True(t, f.quantity(t, m).IsZero())
}

// Receiving the same N twice adds 2N or fails as an over-receipt.
func TestReceiveItems_IsAdditive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)
	po := f.ordered(t, item(m, 7, "1"))
	itemID := po.Items[0].ID

	for range 2 {
		_, _, err := f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(itemID, 3)})
		require.NoError(t, err)
	}
	assert.Equal(t, types.QuantityOf(6), f.quantity(t, m))

	_, _, err := f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(itemID, 3)})
	assert.True(t, apperror.HasCode(err, apperror.CodeOverReceipt))
	assert.Equal(t, types.QuantityOf(6), f.quantity(t, m))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)

	po := f.ordered(t, item(m, 10, "1"))
	_, _, err := f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(po.Items[0].ID, 4)})
	require.NoError(t, err)

	po, err = f.svc.Cancel(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusCancelled, po.Status)
	assert.Equal(t, types.QuantityOf(4), f.quantity(t, m), "received goods stay received")

	_, err = f.svc.Cancel(ctx, po.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, _, err = f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(po.Items[0].ID, 1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = f.svc.MarkOrdered(ctx, po.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestCancel_FromDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)

	po, err := f.svc.Create(ctx, f.supplier.ID, []purchase_order.Item{item(m, 1, "1")})
	require.NoError(t, err)

	po, err = f.svc.Cancel(ctx, po.ID)
	require.NoError(t, err)
	assert.NotNil(t, po.CancelledAt)
}

func TestPay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)
	po := f.ordered(t, item(m, 2, "1"))

	paid, err := f.svc.Pay(ctx, po.ID, "bank_transfer")
	require.NoError(t, err)
	assert.Equal(t, purchase_order.StatusOrdered, paid.Status)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, "bank_transfer", *paid.PaymentMethod)
	assert.NotNil(t, paid.PaidAt)
	assert.True(t, f.quantity(t, m).IsZero())

	_, err = f.svc.Pay(ctx, po.ID, "cash")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))

	_, _, err = f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(po.Items[0].ID, 2)})
	require.NoError(t, err, "payment does not block receiving")

	other := f.ordered(t, item(m, 1, "1"))
	_, err = f.svc.Pay(ctx, other.ID, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestList_ByStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)

	f.ordered(t, item(m, 1, "1"))
	_, err := f.svc.Create(ctx, f.supplier.ID, []purchase_order.Item{item(m, 1, "1")})
	require.NoError(t, err)

	res, err := f.svc.List(ctx, domain.DefaultListFilter(), purchase_order.StatusOrdered)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TotalCount)

	res, err = f.svc.List(ctx, domain.DefaultListFilter(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	_, err = f.svc.List(ctx, domain.DefaultListFilter(), "shipped")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSoftDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMaterial(t, 0)
	po := f.ordered(t, item(m, 1, "1"))

	require.NoError(t, f.svc.SoftDelete(ctx, po.ID))

	_, _, err := f.svc.ReceiveItems(ctx, po.ID, []purchase_order.Receipt{receipt(po.Items[0].ID, 1)})
	assert.True(t, apperror.IsNotFound(err), "deleted purchase orders accept no goods")

	entries, err := f.svc.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, po.Number, entries[0].DisplayFields["number"])

	require.NoError(t, f.svc.Restore(ctx, po.ID))
	assert.True(t, apperror.HasCode(f.svc.Restore(ctx, po.ID), apperror.CodeInvalidState))
	assert.True(t, apperror.HasCode(f.svc.Purge(ctx, po.ID), apperror.CodeInvalidState))

	require.NoError(t, f.svc.SoftDelete(ctx, po.ID))
	require.NoError(t, f.svc.Purge(ctx, po.ID))
	_, err = f.svc.GetByID(ctx, po.ID)
	assert.True(t, apperror.IsNotFound(err))
}
