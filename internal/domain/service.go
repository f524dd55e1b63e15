// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
	"atelier/pkg/logger"
)

// CatalogService provides CRUD and the soft-delete lifecycle for one
// entity collection.
type CatalogService[T entity.Record] struct {
	repo       CatalogRepository[T]
	txManager  tx.Manager
	hooks      *HookRegistry[T]
	journal    audit.Recorder
	entityType softdelete.EntityType
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Record] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	Journal    audit.Recorder
	EntityType softdelete.EntityType
}

var _ softdelete.SoftDeletable = (*CatalogService[entity.Record])(nil)

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Record](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Direct{}
	}
	journal := cfg.Journal
	if journal == nil {
		journal = audit.Nop{}
	}
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  txm,
		hooks:      NewHookRegistry[T](),
		journal:    journal,
		entityType: cfg.EntityType,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityType returns the collection discriminator.
func (s *CatalogService[T]) EntityType() softdelete.EntityType {
	return s.entityType
}

func (s *CatalogService[T]) name() string {
	return string(s.entityType)
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.name(), entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.name()).WithDetail("id", entityID.String())
}

// Create creates a new entity.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.Run(ctx, BeforeCreate, entity); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.name(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, entity); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.name(), "error", err)
	}
	return nil
}

// GetByID retrieves an entity by ID, deleted or not.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return entity, s.normalizeGetErr(err, entityID)
	}
	return entity, nil
}

// GetActive retrieves an entity that is not in the trash.
func (s *CatalogService[T]) GetActive(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.GetByID(ctx, entityID)
	if err != nil {
		return entity, err
	}
	if entity.Base().IsDeleted() {
		var zero T
		return zero, apperror.NewNotFound(s.name(), entityID.String())
	}
	return entity, nil
}

// Update updates an active entity.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.Run(ctx, BeforeUpdate, entity); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, entity); err != nil {
			return fmt.Errorf("update %s: %w", s.name(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterUpdate, entity); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.name(), "error", err)
	}
	return nil
}

// List retrieves active entities, or the trash when filter.Deleted is set.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists reports whether an active entity has the id.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}

// SoftDelete moves an active entity to the trash.
func (s *CatalogService[T]) SoftDelete(ctx context.Context, entityID id.ID) error {
	entity, err := s.GetActive(ctx, entityID)
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, BeforeDelete, entity); err != nil {
		return err
	}

	now := time.Now().UTC()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.MarkDeleted(ctx, entityID, now); err != nil {
			return fmt.Errorf("soft delete %s: %w", s.name(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: s.name(),
		EntityID:   entityID,
		Action:     audit.ActionSoftDelete,
	})

	if err := s.hooks.Run(ctx, AfterDelete, entity); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.name(), "error", err)
	}
	return nil
}

// Restore returns a deleted entity to the active set.
func (s *CatalogService[T]) Restore(ctx context.Context, entityID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Unmark(ctx, entityID); err != nil {
			return fmt.Errorf("restore %s: %w", s.name(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: s.name(),
		EntityID:   entityID,
		Action:     audit.ActionRestore,
	})

	if len(s.hooks.hooks[AfterRestore]) > 0 {
		entity, err := s.repo.GetByID(ctx, entityID)
		if err == nil {
			if err := s.hooks.Run(ctx, AfterRestore, entity); err != nil {
				logger.Warn(ctx, "after-restore hook failed", "entity", s.name(), "error", err)
			}
		}
	}
	return nil
}

// Purge physically removes a deleted entity. The removed record is kept as
// a snapshot in the audit journal.
func (s *CatalogService[T]) Purge(ctx context.Context, entityID id.ID) error {
	entity, err := s.GetByID(ctx, entityID)
	if err != nil {
		return err
	}
	if !entity.Base().IsDeleted() {
		return apperror.NewInvalidState(s.name(), entityID.String(), "record must be soft-deleted before it can be purged")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.HardDelete(ctx, entityID); err != nil {
			return fmt.Errorf("purge %s: %w", s.name(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Write(ctx, s.journal, audit.Entry{
		EntityType: s.name(),
		EntityID:   entityID,
		Action:     audit.ActionPurge,
		Payload:    map[string]any{"snapshot": entity},
	})
	return nil
}

// ListDeleted projects the trash of this collection.
func (s *CatalogService[T]) ListDeleted(ctx context.Context) ([]softdelete.Entry, error) {
	items, err := s.repo.ListDeleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deleted %s: %w", s.name(), err)
	}
	return TrashEntries(s.entityType, items), nil
}

// IsDeleted reports whether the entity is in the trash.
func (s *CatalogService[T]) IsDeleted(ctx context.Context, entityID id.ID) (bool, error) {
	entity, err := s.GetByID(ctx, entityID)
	if err != nil {
		return false, err
	}
	return entity.Base().IsDeleted(), nil
}

// TrashEntries projects deleted records into trash entries.
func TrashEntries[T entity.Record](entityType softdelete.EntityType, items []T) []softdelete.Entry {
	entries := make([]softdelete.Entry, 0, len(items))
	for _, item := range items {
		base := item.Base()
		if !base.IsDeleted() {
			continue
		}
		entry := softdelete.Entry{
			ID:            base.ID,
			EntityType:    entityType,
			DisplayFields: item.DisplayFields(),
		}
		if base.DeletedAt != nil {
			entry.DeletedAt = *base.DeletedAt
		}
		entries = append(entries, entry)
	}
	return entries
}
