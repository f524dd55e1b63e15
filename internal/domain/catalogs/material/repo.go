package material

import (
	"context"

	"atelier/internal/core/id"
	"atelier/internal/core/types"
	"atelier/internal/domain"
)

// Repository defines the interface for Material persistence.
//
// Update never writes Quantity; stock moves only through the atomic
// operations below.
type Repository interface {
	domain.CatalogRepository[*Material]

	// Decrement subtracts qty from an active material only if the result
	// stays non-negative. applied is false when no row matched.
	Decrement(ctx context.Context, materialID id.ID, qty types.Quantity) (remaining types.Quantity, applied bool, err error)

	// Increment adds qty. NotFound when the material row does not exist.
	Increment(ctx context.Context, materialID id.ID, qty types.Quantity) (types.Quantity, error)

	// SetQuantity overwrites the quantity of an active material.
	SetQuantity(ctx context.Context, materialID id.ID, qty types.Quantity) error

	// ListLowStock returns active materials at or below their threshold.
	ListLowStock(ctx context.Context) ([]*Material, error)

	// LockActive locks an active material until the surrounding transaction
	// ends. NotFound when no active material has the id.
	LockActive(ctx context.Context, materialID id.ID) error
}

// UsageCounter counts active documents that reference a material.
type UsageCounter interface {
	CountMaterialUsage(ctx context.Context, materialID id.ID) (int, error)
}
