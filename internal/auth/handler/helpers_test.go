package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AnthoniusHendriyanto/backoffice-auth/config"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/handler"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/service"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/mocks"
	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	app    *fiber.App
	repo   *mocks.MockUserRepository
	mailer *mocks.MockMailer
	tokens *service.TokenService
	hasher *service.BcryptHasher
}

func newTestEnv(t *testing.T, cfg *config.Config, opts ...service.Option) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	env := &testEnv{
		repo:   mocks.NewMockUserRepository(ctrl),
		mailer: mocks.NewMockMailer(ctrl),
		tokens: service.NewTokenService("handler-test-secret", service.TokenTTLs{}),
		hasher: service.NewBcryptHasher(bcrypt.MinCost),
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	opts = append([]service.Option{service.WithHasher(env.hasher), service.WithMailer(env.mailer)}, opts...)
	userService := service.NewUserService(env.repo, env.tokens, cfg, opts...)

	env.app = handler.NewServer(handler.NewAuthHandler(userService), handler.ServerOptions{
		Logger:     zerolog.Nop(),
		Production: true,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (e *testEnv) user(t *testing.T, id, role, password string) *domain.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	return &domain.User{
		ID:           id,
		Username:     id + "_name",
		Email:        id + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
}

func (e *testEnv) session(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := e.tokens.Issue(service.SessionToken{ID: u.ID, Role: u.Role})
	require.NoError(t, err)
	return token
}

// expectAuth makes the middleware find u when it resolves a session.
func (e *testEnv) expectAuth(u *domain.User) *gomock.Call {
	return e.repo.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)
}
