package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, role, is_active, reset_token, reset_token_expiry, created_at, updated_at`

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db DBTX
}

var _ domain.UserRepository = (*PostgresRepository)(nil)

func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 LIMIT 1`, username)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	if err := pgxscan.Get(ctx, r.db, &user, query, arg); err != nil {
		if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	if err := pgxscan.Select(ctx, r.db, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = now()
		WHERE id = $1
	`, id, token, expiry)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET reset_token = NULL, reset_token_expiry = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken is a single conditional UPDATE so two concurrent
// redemptions of the same token cannot both succeed.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, id, token, passwordHash string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $3, reset_token = NULL, reset_token_expiry = NULL, updated_at = $4
		WHERE id = $1 AND reset_token = $2 AND reset_token_expiry > $4
	`, id, token, passwordHash, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, email, ip_address, attempt_time, successful)
		VALUES (gen_random_uuid(), $1, $2, now(), $3)
	`, email, ip, success)
	return err
}

func (r *PostgresRepository) CountRecentFailedAttempts(ctx context.Context, email, ip string, windowMinutes int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND ip_address = $2 AND successful = FALSE
		  AND attempt_time > now() - make_interval(mins => $3)
	`, email, ip, windowMinutes).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count login attempts: %w", err)
	}
	return count, nil
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return fmt.Errorf("failed to create user: %w", err)
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return autherror.ErrEmailAlreadyInUse
	case "users_username_key":
		return autherror.ErrUsernameTaken
	default:
		return autherror.ErrConflict
	}
}
