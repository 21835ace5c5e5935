package service_test

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/AnthoniusHendriyanto/backoffice-auth/config"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/service"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
	keyErr  error
)

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		testKey, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, keyErr)
	return testKey
}

func fastHasher() *service.BcryptHasher {
	return service.NewBcryptHasher(bcrypt.MinCost)
}

type fixture struct {
	repo   *mocks.MockUserRepository
	mailer *mocks.MockMailer
	tokens *service.TokenService
	svc    *service.UserService
}

func newFixture(t *testing.T, cfg *config.Config, opts ...service.Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:   mocks.NewMockUserRepository(ctrl),
		mailer: mocks.NewMockMailer(ctrl),
		tokens: service.NewTokenService(testSecret, service.TokenTTLs{}),
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	opts = append([]service.Option{service.WithHasher(fastHasher()), service.WithMailer(f.mailer)}, opts...)
	f.svc = service.NewUserService(f.repo, f.tokens, cfg, opts...)
	return f
}
