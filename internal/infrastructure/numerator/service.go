// Package numerator issues document numbers from the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	corenumerator "atelier/internal/core/numerator"
)

// Querier is the subset of pgx used by the service.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierSource resolves the querier for a call; postgres.TxManager.GetQuerier
// fits, so numbers are drawn inside the caller's transaction when there is one.
type QuerierSource func(ctx context.Context) Querier

const (
	// Adds the inserted value to an existing counter.
	onConflictAdd = "ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + EXCLUDED.current_val RETURNING current_val"
	// Overwrites an existing counter.
	onConflictSet = "ON CONFLICT (key) DO UPDATE SET current_val = EXCLUDED.current_val RETURNING current_val"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// reserved is a block of numbers (next, last] taken from the table.
type reserved struct {
	next int64
	last int64
}

// Service is the PostgreSQL numerator.Generator.
type Service struct {
	querier QuerierSource

	mu     sync.Mutex
	blocks map[string]*reserved
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a service that always uses q.
func New(q Querier) *Service {
	return NewWithSource(func(context.Context) Querier { return q })
}

// NewWithSource creates a service resolving the querier per call.
func NewWithSource(src QuerierSource) *Service {
	return &Service{
		querier: src,
		blocks:  make(map[string]*reserved),
	}
}

// GetNextNumber implements numerator.Generator. Nil opts means strict.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, at time.Time) (string, error) {
	key := cfg.Key(at)

	var (
		n   int64
		err error
	)
	if opts != nil && opts.Strategy == corenumerator.StrategyCached {
		n, err = s.nextFromBlock(ctx, key, opts.RangeSize)
	} else {
		n, err = s.upsert(ctx, key, 1, onConflictAdd)
		if err != nil {
			err = fmt.Errorf("strict next %s: %w", key, err)
		}
	}
	if err != nil {
		return "", err
	}
	return cfg.Format(at, n), nil
}

func (s *Service) nextFromBlock(ctx context.Context, key string, size int64) (int64, error) {
	if size <= 0 {
		size = corenumerator.DefaultRangeSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blocks[key]
	if !ok || b.next >= b.last {
		last, err := s.upsert(ctx, key, size, onConflictAdd)
		if err != nil {
			return 0, fmt.Errorf("reserve %d numbers for %s: %w", size, key, err)
		}
		b = &reserved{next: last - size, last: last}
		s.blocks[key] = b
	}
	b.next++
	return b.next, nil
}

// SetNextNumber overwrites the last issued value, e.g. after a data import.
// A block cached for the sequence is dropped.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, at time.Time, value int64) error {
	key := cfg.Key(at)

	s.mu.Lock()
	delete(s.blocks, key)
	s.mu.Unlock()

	if _, err := s.upsert(ctx, key, value, onConflictSet); err != nil {
		return fmt.Errorf("set sequence %s: %w", key, err)
	}
	return nil
}

func (s *Service) upsert(ctx context.Context, key string, value int64, onConflict string) (int64, error) {
	query, args, err := psql.Insert("sys_sequences").
		Columns("key", "current_val").
		Values(key, value).
		Suffix(onConflict).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var current int64
	if err := s.querier(ctx).QueryRow(ctx, query, args...).Scan(&current); err != nil {
		return 0, err
	}
	return current, nil
}
