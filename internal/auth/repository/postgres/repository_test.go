package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/domain"
	repo "github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/repository/postgres"
	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "role", "is_active",
	"reset_token", "reset_token_expiry", "created_at", "updated_at",
}

func userRow(rows *pgxmock.Rows, u domain.User) *pgxmock.Rows {
	return rows.AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive,
		u.ResetToken, u.ResetTokenExpiry, u.CreatedAt, u.UpdatedAt)
}

func sampleUser() domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.User{
		ID:           "user-123",
		Username:     "alice01",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         "user",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	expected := sampleUser()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(expected.Email).
			WillReturnRows(userRow(pgxmock.NewRows(userColumns), expected))

		user, err := r.GetByEmail(ctx, expected.Email)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, user.ID)
		assert.Equal(t, expected.Username, user.Username)
		assert.True(t, user.IsActive)
		assert.Nil(t, user.ResetToken)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(expected.Email).
			WillReturnRows(pgxmock.NewRows(userColumns))

		user, err := r.GetByEmail(ctx, expected.Email)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("no rows error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(expected.Email).
			WillReturnError(pgx.ErrNoRows)

		user, err := r.GetByEmail(ctx, expected.Email)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(expected.Email).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, expected.Email)
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_WithResetToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	expected := sampleUser()
	token := "signed-reset-token"
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	expected.ResetToken = &token
	expected.ResetTokenExpiry = &expiry

	mock.ExpectQuery("SELECT id, username, email.* WHERE id = \\$1").
		WithArgs(expected.ID).
		WillReturnRows(userRow(pgxmock.NewRows(userColumns), expected))

	user, err := r.GetByID(context.Background(), expected.ID)
	require.NoError(t, err)
	require.NotNil(t, user.ResetToken)
	assert.Equal(t, token, *user.ResetToken)
	assert.True(t, user.HasValidResetToken(token, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectQuery("WHERE username = \\$1").
		WithArgs("alice01").
		WillReturnRows(pgxmock.NewRows(userColumns))

	user, err := r.GetByUsername(context.Background(), "alice01")
	require.NoError(t, err)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllUsers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		first, second := sampleUser(), sampleUser()
		second.ID, second.Username, second.Email, second.Role = "user-456", "bob_02", "bob@example.com", "admin"

		rows := pgxmock.NewRows(userColumns)
		userRow(rows, first)
		userRow(rows, second)
		mock.ExpectQuery("SELECT id, username, email.* ORDER BY created_at DESC").WillReturnRows(rows)

		users, err := r.GetAllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "bob_02", users[1].Username)
		assert.Equal(t, "admin", users[1].Role)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetAllUsers(ctx)
		assert.Error(t, err)
	})
}

func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	u := sampleUser()
	args := []any{u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.Create(ctx, &u))
	})

	tests := []struct {
		name       string
		constraint string
		expected   error
	}{
		{name: "duplicate email", constraint: "users_email_key", expected: autherror.ErrEmailAlreadyInUse},
		{name: "duplicate username", constraint: "users_username_key", expected: autherror.ErrUsernameTaken},
		{name: "other unique constraint", constraint: "users_other_key", expected: autherror.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec("INSERT INTO users").
				WithArgs(args...).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := r.Create(ctx, &u)
			assert.ErrorIs(t, err, tt.expected)
			assert.ErrorIs(t, err, autherror.ErrConflict)
		})
	}

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(args...).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Create(ctx, &u)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, autherror.ErrConflict)
	})
}

func TestUpdateRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET role").
			WithArgs("user-123", "admin").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.UpdateRole(ctx, "user-123", "admin"))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET role").
			WithArgs("missing", "admin").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, r.UpdateRole(ctx, "missing", "admin"), autherror.ErrUserNotFound)
	})
}

func TestUpdateActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("UPDATE users SET is_active").
		WithArgs("user-123", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, r.UpdateActive(ctx, "user-123", false))

	mock.ExpectExec("UPDATE users SET is_active").
		WithArgs("missing", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, r.UpdateActive(ctx, "missing", true), autherror.ErrNotFound)

	mock.ExpectExec("UPDATE users SET is_active").
		WithArgs("user-123", true).
		WillReturnError(fmt.Errorf("db error"))
	assert.Error(t, r.UpdateActive(ctx, "user-123", true))
}

func TestResetTokenLifecycle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	now := time.Now().UTC()
	expiry := now.Add(time.Hour)

	t.Run("set", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET reset_token = \\$2, reset_token_expiry = \\$3").
			WithArgs("user-123", "tok", expiry).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.SetResetToken(ctx, "user-123", "tok", expiry))
	})

	t.Run("clear", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET reset_token = NULL, reset_token_expiry = NULL").
			WithArgs("user-123").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.ClearResetToken(ctx, "user-123"))
	})

	t.Run("consume once", func(t *testing.T) {
		mock.ExpectExec("UPDATE users\\s+SET password_hash = \\$3").
			WithArgs("user-123", "tok", "new-hash", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE users\\s+SET password_hash = \\$3").
			WithArgs("user-123", "tok", "new-hash", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := r.ConsumeResetToken(ctx, "user-123", "tok", "new-hash", now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.ConsumeResetToken(ctx, "user-123", "tok", "new-hash", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("consume error", func(t *testing.T) {
		mock.ExpectExec("UPDATE users").
			WithArgs("user-123", "tok", "new-hash", now).
			WillReturnError(fmt.Errorf("db error"))

		ok, err := r.ConsumeResetToken(ctx, "user-123", "tok", "new-hash", now)
		assert.Error(t, err)
		assert.False(t, ok)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountRecentFailedAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	email := "test@example.com"
	ip := "127.0.0.1"
	minutes := 15
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		expectedCount := 5
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(email, ip, minutes).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(expectedCount))

		count, err := r.CountRecentFailedAttempts(ctx, email, ip, minutes)
		require.NoError(t, err)
		assert.Equal(t, expectedCount, count)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(email, ip, minutes).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.CountRecentFailedAttempts(ctx, email, ip, minutes)
		assert.Error(t, err)
	})
}

func TestRecordLoginAttempt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO login_attempts").
			WithArgs("test@example.com", "127.0.0.1", true).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.RecordLoginAttempt(ctx, "test@example.com", "127.0.0.1", true))
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO login_attempts").
			WithArgs("test@example.com", "127.0.0.1", false).
			WillReturnError(fmt.Errorf("db error"))

		assert.Error(t, r.RecordLoginAttempt(ctx, "test@example.com", "127.0.0.1", false))
	})
}
