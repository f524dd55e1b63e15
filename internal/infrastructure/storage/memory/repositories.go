package memory

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain"
	"atelier/internal/domain/catalogs/customer"
	"atelier/internal/domain/catalogs/employee"
	"atelier/internal/domain/catalogs/finance"
	"atelier/internal/domain/catalogs/itemtype"
	"atelier/internal/domain/catalogs/job"
	"atelier/internal/domain/catalogs/material"
	"atelier/internal/domain/catalogs/measurement"
	"atelier/internal/domain/catalogs/notification"
	"atelier/internal/domain/catalogs/style"
	"atelier/internal/domain/catalogs/supplier"
	"atelier/internal/domain/catalogs/user"
	"atelier/internal/domain/documents/order"
	"atelier/internal/domain/documents/purchase_order"
)

// --- Material ---

// MaterialRepo stores materials. Quantity changes run under the store lock,
// one critical section per adjustment.
type MaterialRepo struct {
	*CatalogStore[material.Material, *material.Material]
}

var _ material.Repository = (*MaterialRepo)(nil)

// NewMaterialRepo creates an empty material repository.
func NewMaterialRepo() *MaterialRepo {
	store := NewCatalogStore[material.Material]("material")
	store.PreserveOnUpdate(func(stored, incoming *material.Material) {
		incoming.Quantity = stored.Quantity
	})
	return &MaterialRepo{CatalogStore: store}
}

// Decrement implements material.Repository.
func (r *MaterialRepo) Decrement(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, bool, error) {
	var (
		remaining types.Quantity
		applied   bool
	)
	err := r.mutate(materialID, func(m *material.Material) error {
		if m.IsDeleted() || m.Quantity < qty {
			return nil
		}
		m.Quantity -= qty
		remaining, applied = m.Quantity, true
		return nil
	})
	if err != nil {
		// A missing row is reported as "not applied" like the SQL version.
		return 0, false, nil
	}
	return remaining, applied, nil
}

// LockActive implements material.Repository. The store has no row locks;
// only existence is checked.
func (r *MaterialRepo) LockActive(ctx context.Context, materialID id.ID) error {
	m, err := r.GetByID(ctx, materialID)
	if err != nil {
		return err
	}
	if m.IsDeleted() {
		return apperror.NewNotFound("material", materialID.String())
	}
	return nil
}

// Increment implements material.Repository.
func (r *MaterialRepo) Increment(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, error) {
	var total types.Quantity
	err := r.mutate(materialID, func(m *material.Material) error {
		m.Quantity += qty
		total = m.Quantity
		return nil
	})
	return total, err
}

// SetQuantity implements material.Repository.
func (r *MaterialRepo) SetQuantity(ctx context.Context, materialID id.ID, qty types.Quantity) error {
	s := r.CatalogStore
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.items[materialID]
	if !ok || m.IsDeleted() {
		return apperror.NewNotFound("material", materialID.String())
	}
	m.Quantity = qty
	return nil
}

// ListLowStock implements material.Repository.
// Ordered by name, then id, like the SQL version.
func (r *MaterialRepo) ListLowStock(ctx context.Context) ([]*material.Material, error) {
	res, err := r.ListWhere(ctx, domain.ListFilter{}, (*material.Material).IsLowStock)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(res.Items, func(a, b *material.Material) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return res.Items, nil
}

// --- Documents ---

// OrderRepo stores orders with their lines.
type OrderRepo struct {
	*CatalogStore[order.Order, *order.Order]
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates an empty order repository.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{CatalogStore: NewCatalogStore[order.Order]("order")}
}

// ListByCustomer implements order.Repository.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID id.ID, filter domain.ListFilter) (domain.ListResult[*order.Order], error) {
	return r.ListWhere(ctx, filter, func(o *order.Order) bool { return o.CustomerID == customerID })
}

// CountMaterialUsage implements material.UsageCounter.
func (r *OrderRepo) CountMaterialUsage(ctx context.Context, materialID id.ID) (int, error) {
	return r.Count(func(o *order.Order) bool { return o.UsesMaterial(materialID) }), nil
}

// PurchaseOrderRepo stores purchase orders with their items.
type PurchaseOrderRepo struct {
	*CatalogStore[purchase_order.PurchaseOrder, *purchase_order.PurchaseOrder]
}

var _ purchase_order.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates an empty purchase order repository.
func NewPurchaseOrderRepo() *PurchaseOrderRepo {
	return &PurchaseOrderRepo{CatalogStore: NewCatalogStore[purchase_order.PurchaseOrder]("purchase order")}
}

// ListByStatus implements purchase_order.Repository.
func (r *PurchaseOrderRepo) ListByStatus(ctx context.Context, status purchase_order.Status, filter domain.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	return r.ListWhere(ctx, filter, func(po *purchase_order.PurchaseOrder) bool { return po.Status == status })
}

// CountMaterialUsage implements material.UsageCounter.
func (r *PurchaseOrderRepo) CountMaterialUsage(ctx context.Context, materialID id.ID) (int, error) {
	return r.Count(func(po *purchase_order.PurchaseOrder) bool {
		return po.Status.IsOpen() && po.UsesMaterial(materialID)
	}), nil
}

// --- Catalogs ---

// NewCustomerRepo creates an empty customer repository.
func NewCustomerRepo() *CatalogStore[customer.Customer, *customer.Customer] {
	return NewCatalogStore[customer.Customer]("customer")
}

// NewEmployeeRepo creates an empty employee repository.
func NewEmployeeRepo() *CatalogStore[employee.Employee, *employee.Employee] {
	return NewCatalogStore[employee.Employee]("employee")
}

// NewMeasurementRepo creates an empty measurement repository.
func NewMeasurementRepo() *CatalogStore[measurement.Measurement, *measurement.Measurement] {
	return NewCatalogStore[measurement.Measurement]("measurement")
}

// NewStyleRepo creates an empty style repository.
func NewStyleRepo() *CatalogStore[style.Style, *style.Style] {
	return NewCatalogStore[style.Style]("style")
}

// NewJobRepo creates an empty job repository.
func NewJobRepo() *CatalogStore[job.Job, *job.Job] {
	return NewCatalogStore[job.Job]("job")
}

// NewItemTypeRepo creates an empty item type repository.
func NewItemTypeRepo() *CatalogStore[itemtype.ItemType, *itemtype.ItemType] {
	return NewCatalogStore[itemtype.ItemType]("item type")
}

// NewSupplierRepo creates an empty supplier repository.
func NewSupplierRepo() *CatalogStore[supplier.Supplier, *supplier.Supplier] {
	return NewCatalogStore[supplier.Supplier]("supplier")
}

// NewUserRepo creates an empty user repository.
func NewUserRepo() *CatalogStore[user.User, *user.User] {
	return NewCatalogStore[user.User]("user")
}

// NewNotificationRepo creates an empty notification repository.
func NewNotificationRepo() *CatalogStore[notification.Notification, *notification.Notification] {
	return NewCatalogStore[notification.Notification]("notification")
}

// NewFinanceRepo creates an empty finance transaction repository.
func NewFinanceRepo() *CatalogStore[finance.Transaction, *finance.Transaction] {
	return NewCatalogStore[finance.Transaction]("finance transaction")
}
