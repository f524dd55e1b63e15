package purchase_order

import (
	"context"

	"atelier/internal/domain"
	"atelier/internal/domain/catalogs/material"
)

// Repository persists purchase orders together with their items.
type Repository interface {
	domain.CatalogRepository[*PurchaseOrder]

	// ListByStatus lists active purchase orders in one status.
	ListByStatus(ctx context.Context, status Status, filter domain.ListFilter) (domain.ListResult[*PurchaseOrder], error)

	// CountMaterialUsage counts active draft or ordered purchase orders with
	// an item for the material.
	material.UsageCounter
}
