package domain

import "time"

type User struct {
	ID               string     `db:"id"`
	Username         string     `db:"username"`
	Email            string     `db:"email"`
	PasswordHash     string     `db:"password_hash"`
	Role             string     `db:"role"`
	IsActive         bool       `db:"is_active"`
	ResetToken       *string    `db:"reset_token"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// HasValidResetToken reports whether token matches the stored reset token and
// the stored expiry is still ahead of now.
func (u *User) HasValidResetToken(token string, now time.Time) bool {
	if u.ResetToken == nil || u.ResetTokenExpiry == nil {
		return false
	}
	return *u.ResetToken == token && u.ResetTokenExpiry.After(now)
}
