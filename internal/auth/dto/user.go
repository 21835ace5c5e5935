package dto

import (
	"time"

	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/domain"
)

// UserOutput is the public view of a user record. It never carries the
// password hash or reset token fields.
type UserOutput struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UpdateRoleInput struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

type UpdateStatusInput struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
