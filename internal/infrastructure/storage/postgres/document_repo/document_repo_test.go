package document_repo

import (
	"encoding/json"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain/documents/order"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/domain/stock"
)

func TestOrderRepo_CountUsageJoinsLines(t *testing.T) {
	repo := NewOrderRepo(nil)
	materialID := id.New()

	sql, args, err := repo.buildCountUsage(materialID, nil).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COUNT(DISTINCT d.id) FROM orders d JOIN order_materials l ON l.order_id = d.id WHERE d.deleted = $1 AND l.material_id = $2",
		sql)
	assert.Equal(t, []any{false, materialID.String()}, args)
}

func TestPurchaseOrderRepo_CountUsageOnlyOpen(t *testing.T) {
	repo := NewPurchaseOrderRepo(nil)
	materialID := id.New()

	sql, args, err := repo.buildCountUsage(materialID, squirrel.Eq{
		"d.status": []purchase_order.Status{purchase_order.StatusDraft, purchase_order.StatusOrdered},
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM purchase_orders d JOIN purchase_order_items l ON l.purchase_order_id = d.id")
	assert.Contains(t, sql, "d.status IN ($3,$4)")
	assert.Equal(t, []any{false, materialID.String(), purchase_order.StatusDraft, purchase_order.StatusOrdered}, args)
}

func TestOrderRepo_InsertLinesPrependsParent(t *testing.T) {
	repo := NewOrderRepo(nil)
	orderID := id.New()
	materialID := id.New()
	qty := types.QuantityOf(2)

	sql, args, err := repo.buildInsertLines(orderID, orderLineCols, [][]any{{1, materialID, qty}}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO order_materials (order_id,line_no,material_id,quantity) VALUES ($1,$2,$3,$4)",
		sql)
	assert.Equal(t, []any{orderID, 1, materialID, qty}, args)
}

func TestGroupByParent_EmptyDocumentsGetEmptySlice(t *testing.T) {
	withLines := id.New()
	withoutLines := id.New()
	materialID := id.New()

	rows := []orderLineRow{
		{OrderID: withLines, LineNo: 1, Line: stock.Line{MaterialID: materialID, Quantity: types.QuantityOf(1)}},
		{OrderID: withLines, LineNo: 2, Line: stock.Line{MaterialID: materialID, Quantity: types.QuantityOf(2)}},
	}
	grouped := groupByParent([]id.ID{withLines, withoutLines}, rows, func(row orderLineRow) (id.ID, stock.Line) {
		return row.OrderID, row.Line
	})

	require.Len(t, grouped[withLines], 2)
	assert.Equal(t, types.QuantityOf(2), grouped[withLines][1].Quantity)
	assert.NotNil(t, grouped[withoutLines])
	assert.Empty(t, grouped[withoutLines])

	o := order.NewOrder(id.New())
	o.MaterialsUsed = grouped[withoutLines]
	raw, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"materialsUsed":[]`)
}
