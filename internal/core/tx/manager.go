// Package tx provides transaction management abstractions.
// Domain services depend on Manager, not on a concrete database.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Direct runs fn without a surrounding transaction. Used by the in-process
// store, where every write is already a single critical section; services
// stay atomic through validate-then-apply and compensation.
type Direct struct{}

// RunInTransaction implements Manager.
func (Direct) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ Manager = Direct{}
