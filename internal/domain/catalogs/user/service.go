package user

import (
	"context"
	"fmt"

	"atelier/internal/core/apperror"
	"atelier/internal/core/tx"
	"atelier/internal/domain"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/softdelete"
)

// Repository defines the interface for User persistence.
type Repository = domain.CatalogRepository[*User]

// Service provides business logic for users.
type Service struct {
	*domain.CatalogService[*User]
	repo Repository
}

// NewService creates a new User service.
func NewService(repo Repository, txm tx.Manager, journal audit.Recorder) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*User]{
		Repo:       repo,
		TxManager:  txm,
		Journal:    journal,
		EntityType: softdelete.User,
	})

	svc := &Service{CatalogService: base, repo: repo}
	base.Hooks().OnBeforeCreate(svc.checkUsername)
	base.Hooks().OnBeforeUpdate(svc.checkUsername)
	return svc
}

// checkUsername enforces username uniqueness among active users.
func (s *Service) checkUsername(ctx context.Context, u *User) error {
	res, err := s.repo.List(ctx, domain.ListFilter{Search: u.Username})
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	for _, other := range res.Items {
		if other.Username == u.Username && other.ID != u.ID {
			return apperror.NewConflict("user with this username already exists").
				WithDetail("username", u.Username)
		}
	}
	return nil
}
