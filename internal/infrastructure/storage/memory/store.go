// Package memory provides in-process repositories with the same conditional
// semantics as the PostgreSQL ones. Used for STORAGE_DRIVER=memory and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/domain"
)

// CatalogStore is a generic soft-delete aware store. Records are copied on
// the way in and out so callers never share state with the store.
type CatalogStore[E any, T interface {
	*E
	entity.Record
}] struct {
	mu     sync.RWMutex
	name   string
	items  map[id.ID]T
	onSave func(stored, incoming T)

	listDeletedErr error
}

// NewCatalogStore creates an empty store; name is used in errors.
func NewCatalogStore[E any, T interface {
	*E
	entity.Record
}](name string) *CatalogStore[E, T] {
	return &CatalogStore[E, T]{
		name:  name,
		items: make(map[id.ID]T),
	}
}

// PreserveOnUpdate registers fn to copy fields the stored record keeps
// across Update (run under the store lock).
func (s *CatalogStore[E, T]) PreserveOnUpdate(fn func(stored, incoming T)) {
	s.onSave = fn
}

// FailListDeleted makes ListDeleted return err. Nil clears it.
func (s *CatalogStore[E, T]) FailListDeleted(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listDeletedErr = err
}

func (s *CatalogStore[E, T]) clone(v T) T {
	if c, ok := any(v).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	cp := *v
	return T(&cp)
}

// Create inserts a new record.
func (s *CatalogStore[E, T]) Create(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := v.Base()
	if _, exists := s.items[base.ID]; exists {
		return apperror.NewConflict(fmt.Sprintf("%s already exists", s.name)).
			WithDetail("id", base.ID.String())
	}
	s.items[base.ID] = s.clone(v)
	return nil
}

// GetByID returns a copy of the record, deleted or not.
func (s *CatalogStore[E, T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[entityID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(s.name, entityID.String())
	}
	return s.clone(v), nil
}

// Update replaces an active record if its version matches, then bumps the
// version on both the stored record and v.
func (s *CatalogStore[E, T]) Update(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := v.Base()
	stored, ok := s.items[base.ID]
	if !ok || stored.Base().IsDeleted() {
		return apperror.NewNotFound(s.name, base.ID.String())
	}
	if stored.Base().Version != base.Version {
		return apperror.NewConcurrentModification(s.name, base.ID.String())
	}

	next := s.clone(v)
	if s.onSave != nil {
		s.onSave(stored, next)
	}
	nb := next.Base()
	nb.CreatedAt = stored.Base().CreatedAt
	nb.SoftDelete = stored.Base().SoftDelete
	nb.Version = base.Version + 1
	nb.UpdatedAt = time.Now().UTC()
	s.items[base.ID] = next

	base.Version = nb.Version
	base.UpdatedAt = nb.UpdatedAt
	if s.onSave != nil {
		s.onSave(next, v)
	}
	return nil
}

// List returns records matching filter.
func (s *CatalogStore[E, T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return s.ListWhere(ctx, filter, nil)
}

// ListWhere is List with an extra predicate.
func (s *CatalogStore[E, T]) ListWhere(ctx context.Context, filter domain.ListFilter, pred func(T) bool) (domain.ListResult[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids map[id.ID]struct{}
	if len(filter.IDs) > 0 {
		ids = make(map[id.ID]struct{}, len(filter.IDs))
		for _, v := range filter.IDs {
			ids[v] = struct{}{}
		}
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]T, 0)
	for _, v := range s.items {
		base := v.Base()
		if base.IsDeleted() != filter.Deleted {
			continue
		}
		if ids != nil {
			if _, ok := ids[base.ID]; !ok {
				continue
			}
		}
		if search != "" && !matchesSearch(v.DisplayFields(), search) {
			continue
		}
		if pred != nil && !pred(v) {
			continue
		}
		matched = append(matched, v)
	}

	if err := sortRecords(matched, filter.OrderBy); err != nil {
		return domain.ListResult[T]{}, err
	}

	result := domain.ListResult[T]{
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		Items:      make([]T, 0),
	}
	start := min(filter.Offset, len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}
	for _, v := range matched[start:end] {
		result.Items = append(result.Items, s.clone(v))
	}
	return result, nil
}

// ListDeleted returns every deleted record.
func (s *CatalogStore[E, T]) ListDeleted(ctx context.Context) ([]T, error) {
	s.mu.RLock()
	failErr := s.listDeletedErr
	s.mu.RUnlock()
	if failErr != nil {
		return nil, failErr
	}

	res, err := s.List(ctx, domain.ListFilter{Deleted: true})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// MarkDeleted flips an active record to deleted.
func (s *CatalogStore[E, T]) MarkDeleted(ctx context.Context, entityID id.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[entityID]
	if !ok || v.Base().IsDeleted() {
		return apperror.NewNotFound(s.name, entityID.String())
	}
	v.Base().MarkDeleted(at)
	v.Base().UpdatedAt = at.UTC()
	return nil
}

// Unmark flips a deleted record back to active.
func (s *CatalogStore[E, T]) Unmark(ctx context.Context, entityID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[entityID]
	if !ok {
		return apperror.NewNotFound(s.name, entityID.String())
	}
	if !v.Base().IsDeleted() {
		return apperror.NewInvalidState(s.name, entityID.String(), fmt.Sprintf("%s is not deleted", s.name))
	}
	v.Base().Undelete()
	v.Base().UpdatedAt = time.Now().UTC()
	return nil
}

// HardDelete removes a deleted record.
func (s *CatalogStore[E, T]) HardDelete(ctx context.Context, entityID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[entityID]
	if !ok {
		return apperror.NewNotFound(s.name, entityID.String())
	}
	if !v.Base().IsDeleted() {
		return apperror.NewInvalidState(s.name, entityID.String(), fmt.Sprintf("%s must be soft-deleted before it can be purged", s.name))
	}
	delete(s.items, entityID)
	return nil
}

// Exists reports whether an active record has the id.
func (s *CatalogStore[E, T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[entityID]
	return ok && !v.Base().IsDeleted(), nil
}

// Count counts active records matching pred.
func (s *CatalogStore[E, T]) Count(pred func(T) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, v := range s.items {
		if !v.Base().IsDeleted() && pred(v) {
			n++
		}
	}
	return n
}

// mutate runs fn on the stored record under the write lock.
func (s *CatalogStore[E, T]) mutate(entityID id.ID, fn func(stored T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[entityID]
	if !ok {
		return apperror.NewNotFound(s.name, entityID.String())
	}
	return fn(v)
}

func matchesSearch(fields map[string]any, search string) bool {
	for _, v := range fields {
		if str, ok := v.(string); ok && strings.Contains(strings.ToLower(str), search) {
			return true
		}
	}
	return false
}

// sortRecords supports the timestamp orderings; everything else falls
// back to newest first.
func sortRecords[T entity.Record](items []T, orderBy string) error {
	desc := true
	field := "created_at"
	switch strings.TrimSpace(orderBy) {
	case "", "-created_at":
	case "created_at", "+created_at":
		desc = false
	case "updated_at", "+updated_at":
		field, desc = "updated_at", false
	case "-updated_at":
		field = "updated_at"
	case "deleted_at", "-deleted_at":
		field = "deleted_at"
	default:
		// Columns not projected by the generic store keep the default order.
	}

	key := func(v T) time.Time {
		b := v.Base()
		switch field {
		case "updated_at":
			return b.UpdatedAt
		case "deleted_at":
			if b.DeletedAt != nil {
				return *b.DeletedAt
			}
			return time.Time{}
		default:
			return b.CreatedAt
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := key(items[i]), key(items[j])
		if !ki.Equal(kj) {
			if desc {
				return ki.After(kj)
			}
			return ki.Before(kj)
		}
		return id.Less(items[i].Base().ID, items[j].Base().ID)
	})
	return nil
}
