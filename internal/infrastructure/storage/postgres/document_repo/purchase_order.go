package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"atelier/internal/core/id"
	"atelier/internal/domain"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/infrastructure/storage/postgres"
	"atelier/internal/infrastructure/storage/postgres/catalog_repo"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderItemsTable = "purchase_order_items"
)

var purchaseOrderItemCols = []string{"id", "line_no", "material_id", "ordered_quantity", "received_quantity", "unit_cost"}

// PurchaseOrderRepo implements purchase_order.Repository.
type PurchaseOrderRepo struct {
	BaseDocumentRepo[*purchase_order.PurchaseOrder]
}

var _ purchase_order.Repository = (*PurchaseOrderRepo)(nil)

type purchaseOrderItemRow struct {
	PurchaseOrderID id.ID `db:"purchase_order_id"`
	LineNo          int   `db:"line_no"`
	purchase_order.Item
}

// NewPurchaseOrderRepo creates the purchase orders repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: BaseDocumentRepo[*purchase_order.PurchaseOrder]{
			BaseCatalogRepo: catalog_repo.NewBaseCatalogRepo[purchase_order.PurchaseOrder](txm, catalog_repo.Config[*purchase_order.PurchaseOrder]{
				TableName:    purchaseOrdersTable,
				EntityName:   "purchase order",
				SearchCols:   []string{"number", "notes"},
				ReadOnlyCols: []string{"number", "supplier_id"},
			}),
			linesTable: purchaseOrderItemsTable,
			parentCol:  "purchase_order_id",
		},
	}
}

// Create inserts the header and its items.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	if err := r.BaseCatalogRepo.Create(ctx, po); err != nil {
		return err
	}
	return r.saveItems(ctx, po)
}

// Update rewrites the header and its items.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	if err := r.BaseCatalogRepo.Update(ctx, po); err != nil {
		return err
	}
	return r.saveItems(ctx, po)
}

func (r *PurchaseOrderRepo) saveItems(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	rows := make([][]any, 0, len(po.Items))
	for i, it := range po.Items {
		rows = append(rows, []any{it.ID, i + 1, it.MaterialID, it.OrderedQuantity, it.ReceivedQuantity, it.UnitCost})
	}
	return r.replaceLines(ctx, po.ID, purchaseOrderItemCols, rows)
}

// GetByID retrieves a purchase order with its items.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, poID id.ID) (*purchase_order.PurchaseOrder, error) {
	po, err := r.BaseCatalogRepo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*purchase_order.PurchaseOrder{po}); err != nil {
		return nil, err
	}
	return po, nil
}

// List retrieves purchase orders with their items.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	return result, r.attachItems(ctx, result.Items)
}

// ListByStatus lists active purchase orders in one status.
func (r *PurchaseOrderRepo) ListByStatus(ctx context.Context, status purchase_order.Status, filter domain.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	result, err := r.ListWhere(ctx, filter, squirrel.Eq{"status": status})
	if err != nil {
		return result, err
	}
	return result, r.attachItems(ctx, result.Items)
}

// ListDeleted retrieves deleted purchase orders with their items.
func (r *PurchaseOrderRepo) ListDeleted(ctx context.Context) ([]*purchase_order.PurchaseOrder, error) {
	items, err := r.BaseCatalogRepo.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	return items, r.attachItems(ctx, items)
}

func (r *PurchaseOrderRepo) attachItems(ctx context.Context, pos []*purchase_order.PurchaseOrder) error {
	var rows []purchaseOrderItemRow
	if err := r.selectLines(ctx, &rows, collectIDs(pos), purchaseOrderItemCols, "purchase_order_id", "line_no"); err != nil {
		return err
	}

	byPO := groupByParent(collectIDs(pos), rows, func(row purchaseOrderItemRow) (id.ID, purchase_order.Item) {
		return row.PurchaseOrderID, row.Item
	})
	for _, po := range pos {
		po.Items = byPO[po.ID]
	}
	return nil
}

// CountMaterialUsage counts open (draft or ordered) purchase orders with an
// item for the material.
func (r *PurchaseOrderRepo) CountMaterialUsage(ctx context.Context, materialID id.ID) (int, error) {
	return r.countActiveUsage(ctx, materialID, squirrel.Eq{
		"d.status": []purchase_order.Status{purchase_order.StatusDraft, purchase_order.StatusOrdered},
	})
}
