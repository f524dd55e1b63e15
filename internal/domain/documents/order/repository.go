package order

import (
	"context"

	"atelier/internal/core/id"
	"atelier/internal/domain"
	"atelier/internal/domain/catalogs/material"
)

// Repository persists orders together with their material lines.
type Repository interface {
	domain.CatalogRepository[*Order]

	// ListByCustomer lists one customer's orders, honoring filter.Deleted.
	ListByCustomer(ctx context.Context, customerID id.ID, filter domain.ListFilter) (domain.ListResult[*Order], error)

	// CountMaterialUsage counts active orders with a line for the material.
	material.UsageCounter
}
