package memory

import (
	"context"
	"sync"
	"time"

	"atelier/internal/core/numerator"
)

// Numerator hands out sequential numbers per sequence key.
type Numerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

var _ numerator.Generator = (*Numerator)(nil)

// NewNumerator creates a numerator starting every sequence at 1.
func NewNumerator() *Numerator {
	return &Numerator{counters: make(map[string]int64)}
}

// GetNextNumber implements numerator.Generator. Both strategies are gapless here.
func (n *Numerator) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	key := cfg.Key(period)

	n.mu.Lock()
	n.counters[key]++
	num := n.counters[key]
	n.mu.Unlock()

	return cfg.Format(period, num), nil
}
