// Package audit defines the journal of stock adjustments and lifecycle events.
package audit

import (
	"context"
	"time"

	"atelier/internal/core/id"
	"atelier/pkg/logger"
)

// Action is the journaled operation.
type Action string

const (
	ActionSoftDelete Action = "soft_delete"
	ActionRestore    Action = "restore"
	ActionPurge      Action = "purge"
	ActionEmptyTrash Action = "empty_trash"
	ActionConsume    Action = "consume"
	ActionRelease    Action = "release"
	ActionReceive    Action = "receive"
	ActionStocktake  Action = "stocktake"
)

// Entry is one journal record.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Payload    map[string]any
	CreatedAt  time.Time
}

// Recorder persists journal entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// Write records entry and logs instead of failing: the journal never blocks
// the operation it describes. Recorders that share the caller's transaction
// must isolate their own failure (the postgres recorder uses a savepoint).
func Write(ctx context.Context, rec Recorder, entry Entry) {
	if rec == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := rec.Record(ctx, entry); err != nil {
		logger.Warn(ctx, "audit journal write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"error", err,
		)
	}
}
