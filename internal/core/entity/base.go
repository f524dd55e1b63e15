// Package entity provides base types shared by every persisted entity.
package entity

import (
	"context"
	"time"

	"atelier/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// SoftDelete is the envelope that marks a record deleted-but-retained.
// A record is created active, marked on delete, cleared on restore and only
// physically removed by an explicit purge.
type SoftDelete struct {
	Deleted   bool       `db:"deleted" json:"deleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// MarkDeleted sets the flag and the deletion timestamp.
func (s *SoftDelete) MarkDeleted(at time.Time) {
	at = at.UTC()
	s.Deleted = true
	s.DeletedAt = &at
}

// Undelete clears the flag and the timestamp.
func (s *SoftDelete) Undelete() {
	s.Deleted = false
	s.DeletedAt = nil
}

// IsDeleted reports whether the record is in the trash.
func (s *SoftDelete) IsDeleted() bool {
	return s.Deleted
}

// BaseEntity contains common fields for all entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	SoftDelete
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Base returns the embedded envelope; promoted to every entity pointer so
// generic stores can reach id, version and deletion state.
func (b *BaseEntity) Base() *BaseEntity {
	return b
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// Record is the contract generic repositories and services work with.
type Record interface {
	Validatable
	Base() *BaseEntity
	// DisplayFields is the projection shown in the trash view.
	DisplayFields() map[string]any
}
