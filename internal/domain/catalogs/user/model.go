// Package user provides the back-office User directory.
// Credentials and sessions live outside this service.
package user

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
)

// User is a back-office account.
type User struct {
	entity.BaseEntity

	Username    string  `db:"username" json:"username"`
	Email       string  `db:"email" json:"email"`
	DisplayName *string `db:"display_name" json:"displayName,omitempty"`
	Role        string  `db:"role" json:"role"`
}

// NewUser creates a new User with the default role.
func NewUser(username, email string) *User {
	return &User{
		BaseEntity: entity.NewBaseEntity(),
		Username:   username,
		Email:      email,
		Role:       "staff",
	}
}

// Validate implements entity.Validatable interface.
func (u *User) Validate(ctx context.Context) error {
	if strings.TrimSpace(u.Username) == "" {
		return apperror.NewValidation("username is required").
			WithDetail("field", "username")
	}
	if !strings.Contains(u.Email, "@") {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	return nil
}

// DisplayFields implements entity.Record.
func (u *User) DisplayFields() map[string]any {
	return map[string]any{"username": u.Username, "email": u.Email}
}
