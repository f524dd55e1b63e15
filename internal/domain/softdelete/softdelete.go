// Package softdelete defines the deleted-but-retained lifecycle shared by
// every entity collection, and the closed set of collections that carry it.
package softdelete

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core/id"
)

// EntityType discriminates the collections that appear in the trash.
type EntityType string

const (
	Customer           EntityType = "customer"
	Employee           EntityType = "employee"
	Order              EntityType = "order"
	Measurement        EntityType = "measurement"
	Style              EntityType = "style"
	Job                EntityType = "job"
	Material           EntityType = "material"
	ItemType           EntityType = "item_type"
	Supplier           EntityType = "supplier"
	PurchaseOrder      EntityType = "purchase_order"
	User               EntityType = "user"
	Notification       EntityType = "notification"
	FinanceTransaction EntityType = "finance_transaction"
)

var entityTypes = []EntityType{
	Customer, Employee, Order, Measurement, Style, Job, Material,
	ItemType, Supplier, PurchaseOrder, User, Notification, FinanceTransaction,
}

// EntityTypes returns every soft-deletable collection in a stable order.
func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	copy(out, entityTypes)
	return out
}

// ParseEntityType maps a discriminator string to its EntityType.
func ParseEntityType(s string) (EntityType, error) {
	for _, t := range entityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Entry is a trash row: a projection of one soft-deleted record.
// It is derived on demand and never stored.
type Entry struct {
	ID            id.ID          `json:"id"`
	EntityType    EntityType     `json:"entityType"`
	DeletedAt     time.Time      `json:"deletedAt"`
	DisplayFields map[string]any `json:"displayFields"`
}

// SoftDeletable is implemented by every entity service.
//
//   - SoftDelete fails with NotFound when no active record has the id.
//   - Restore fails with InvalidState when the record is not deleted.
//   - Purge physically removes a deleted record and fails with InvalidState
//     when the record is still active.
//   - IsDeleted fails with NotFound when no record has the id.
type SoftDeletable interface {
	SoftDelete(ctx context.Context, entityID id.ID) error
	Restore(ctx context.Context, entityID id.ID) error
	Purge(ctx context.Context, entityID id.ID) error
	ListDeleted(ctx context.Context) ([]Entry, error)
	IsDeleted(ctx context.Context, entityID id.ID) (bool, error)
}
