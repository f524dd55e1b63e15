// Package notification stores in-app notices. Delivery is handled elsewhere.
package notification

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Notification is a stored notice for a user.
type Notification struct {
	entity.BaseEntity

	UserID  *id.ID `db:"user_id" json:"userId,omitempty"`
	Title   string `db:"title" json:"title"`
	Message string `db:"message" json:"message"`
	Kind    string `db:"kind" json:"kind"`
	Read    bool   `db:"read" json:"read"`
}

// NewNotification creates an unread notification.
func NewNotification(title, message string) *Notification {
	return &Notification{
		BaseEntity: entity.NewBaseEntity(),
		Title:      title,
		Message:    message,
		Kind:       "info",
	}
}

// Validate implements entity.Validatable interface.
func (n *Notification) Validate(ctx context.Context) error {
	if strings.TrimSpace(n.Title) == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (n *Notification) DisplayFields() map[string]any {
	return map[string]any{"title": n.Title, "kind": n.Kind}
}

// Repository defines the interface for Notification persistence.
type Repository = domain.CatalogRepository[*Notification]

// Service provides business logic for notifications.
type Service = domain.CatalogService[*Notification]

// NewService creates a new Notification service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	return domain.NewCatalogService(domain.CatalogServiceConfig[*Notification]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.Notification,
	})
}
