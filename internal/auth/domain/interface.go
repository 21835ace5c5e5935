package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/domain UserRepository

import (
	"context"
	"time"
)

// UserRepository is the credential store. Lookups return (nil, nil) when no
// row matches. Write methods take an already hashed password.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id, role string) error
	UpdateActive(ctx context.Context, id string, active bool) error

	SetResetToken(ctx context.Context, id, token string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken replaces the password hash and clears both reset
	// fields only while token is still the stored, unexpired reset token.
	// It reports whether a row was updated.
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string, now time.Time) (bool, error)

	RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error
	CountRecentFailedAttempts(ctx context.Context, email, ip string, windowMinutes int) (int, error)
}
