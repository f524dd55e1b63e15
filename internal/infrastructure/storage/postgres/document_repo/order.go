package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/id"
	"atelier/internal/domain"
	"atelier/internal/domain/documents/order"
	"atelier/internal/domain/stock"
	"atelier/internal/infrastructure/storage/postgres"
	"atelier/internal/infrastructure/storage/postgres/catalog_repo"
)

const (
	ordersTable         = "orders"
	orderMaterialsTable = "order_materials"
)

var orderLineCols = []string{"line_no", "material_id", "quantity"}

// OrderRepo implements order.Repository.
type OrderRepo struct {
	BaseDocumentRepo[*order.Order]
}

var _ order.Repository = (*OrderRepo)(nil)

type orderLineRow struct {
	OrderID id.ID `db:"order_id"`
	LineNo  int   `db:"line_no"`
	stock.Line
}

// NewOrderRepo creates the orders repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: BaseDocumentRepo[*order.Order]{
			BaseCatalogRepo: catalog_repo.NewBaseCatalogRepo[order.Order](txm, catalog_repo.Config[*order.Order]{
				TableName:    ordersTable,
				EntityName:   "order",
				SearchCols:   []string{"number", "notes"},
				ReadOnlyCols: []string{"number"},
			}),
			linesTable: orderMaterialsTable,
			parentCol:  "order_id",
		},
	}
}

// Create inserts the header and its material lines.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if err := r.BaseCatalogRepo.Create(ctx, o); err != nil {
		return err
	}
	return r.saveLines(ctx, o)
}

// Update rewrites the header and its material lines.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	if err := r.BaseCatalogRepo.Update(ctx, o); err != nil {
		return err
	}
	return r.saveLines(ctx, o)
}

func (r *OrderRepo) saveLines(ctx context.Context, o *order.Order) error {
	rows := make([][]any, 0, len(o.MaterialsUsed))
	for i, line := range o.MaterialsUsed {
		rows = append(rows, []any{i + 1, line.MaterialID, line.Quantity})
	}
	return r.replaceLines(ctx, o.ID, orderLineCols, rows)
}

// GetByID retrieves an order with its lines.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := r.BaseCatalogRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, []*order.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List retrieves orders with their lines.
func (r *OrderRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*order.Order], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	return result, r.attachLines(ctx, result.Items)
}

// ListDeleted retrieves deleted orders with their lines.
func (r *OrderRepo) ListDeleted(ctx context.Context) ([]*order.Order, error) {
	items, err := r.BaseCatalogRepo.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	return items, r.attachLines(ctx, items)
}

func (r *OrderRepo) attachLines(ctx context.Context, orders []*order.Order) error {
	var rows []orderLineRow
	if err := r.selectLines(ctx, &rows, collectIDs(orders), orderLineCols, "order_id", "line_no"); err != nil {
		return err
	}

	byOrder := groupByParent(collectIDs(orders), rows, func(row orderLineRow) (id.ID, stock.Line) {
		return row.OrderID, row.Line
	})
	for _, o := range orders {
		o.MaterialsUsed = byOrder[o.ID]
	}
	return nil
}

// CountMaterialUsage counts active orders with a line for the material.
func (r *OrderRepo) CountMaterialUsage(ctx context.Context, materialID id.ID) (int, error) {
	return r.countActiveUsage(ctx, materialID, nil)
}

// ListByCustomer lists the orders of one customer.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID id.ID, filter domain.ListFilter) (domain.ListResult[*order.Order], error) {
	result, err := r.ListWhere(ctx, filter, squirrel.Eq{"customer_id": customerID})
	if err != nil {
		return result, err
	}
	return result, r.attachLines(ctx, result.Items)
}
