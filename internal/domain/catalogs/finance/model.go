// Package finance provides income/expense records. They take part in the
// soft-delete lifecycle only; no ledger reconciliation happens here.
package finance

import (
	"context"
	"strings"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/types"
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Kind of transaction.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Transaction is a single finance record.
type Transaction struct {
	entity.BaseEntity

	Kind        Kind        `db:"kind" json:"kind"`
	Amount      types.Money `db:"amount" json:"amount"`
	Category    string      `db:"category" json:"category"`
	Description *string     `db:"description" json:"description,omitempty"`
	OccurredAt  time.Time   `db:"occurred_at" json:"occurredAt"`
}

// NewTransaction creates a transaction dated now.
func NewTransaction(kind Kind, amount types.Money, category string) *Transaction {
	return &Transaction{
		BaseEntity: entity.NewBaseEntity(),
		Kind:       kind,
		Amount:     amount,
		Category:   category,
		OccurredAt: time.Now().UTC(),
	}
}

// Validate implements entity.Validatable interface.
func (t *Transaction) Validate(ctx context.Context) error {
	if t.Kind != KindIncome && t.Kind != KindExpense {
		return apperror.NewValidation("invalid transaction kind").
			WithDetail("field", "kind").
			WithDetail("value", string(t.Kind))
	}
	if !t.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if strings.TrimSpace(t.Category) == "" {
		return apperror.NewValidation("category is required").
			WithDetail("field", "category")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (t *Transaction) DisplayFields() map[string]any {
	return map[string]any{
		"kind":     string(t.Kind),
		"amount":   t.Amount.String(),
		"category": t.Category,
	}
}

// Repository defines the interface for Transaction persistence.
type Repository = domain.CatalogRepository[*Transaction]

// Service provides business logic for finance transactions.
type Service = domain.CatalogService[*Transaction]

// NewService creates a new finance transaction service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*Transaction]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.FinanceTransaction,
	})
}
