package service

//go:generate mockgen -destination=../../mocks/mock_mailer.go -package=mocks github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/service Mailer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/AnthoniusHendriyanto/backoffice-auth/config"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/AnthoniusHendriyanto/backoffice-auth/internal/metrics"
	"github.com/AnthoniusHendriyanto/backoffice-auth/pkg/constant"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

type UserService struct {
	repo      domain.UserRepository
	tokens    TokenGenerator
	hasher    PasswordHasher
	transit   *TransitDecryptor
	mailer    Mailer
	validator *Validator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time

	frontendURL        string
	loginMaxAttempts   int
	loginWindowMinutes int

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*UserService)

func WithHasher(h PasswordHasher) Option {
	return func(s *UserService) { s.hasher = h }
}

func WithTransitDecryptor(d *TransitDecryptor) Option {
	return func(s *UserService) { s.transit = d }
}

func WithMailer(m Mailer) Option {
	return func(s *UserService) { s.mailer = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *UserService) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *UserService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *UserService) { s.now = now }
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, cfg *config.Config, opts ...Option) *UserService {
	s := &UserService{
		repo:               repo,
		tokens:             tokens,
		hasher:             NewBcryptHasher(cfg.BcryptCost),
		validator:          NewValidator(),
		logger:             zerolog.Nop(),
		now:                time.Now,
		frontendURL:        cfg.FrontendURL,
		loginMaxAttempts:   cfg.LoginMaxAttempts,
		loginWindowMinutes: cfg.LoginWindowMinutes,
	}
	if s.frontendURL == "" {
		s.frontendURL = config.DefaultFrontendURL
	}
	if s.loginWindowMinutes <= 0 {
		s.loginWindowMinutes = config.DefaultLoginWindowMinutes
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublicKeyPEM exposes the transit public key, "" when none is configured.
func (s *UserService) PublicKeyPEM() string {
	return s.transit.PublicKeyPEM()
}

func (s *UserService) Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		s.metrics.Signup(metrics.OutcomeValidationFailed)
		return nil, err
	}

	user, err := s.CreateUser(ctx, input.Username, input.Email, input.Password, constant.DefaultUserRole)
	if err != nil {
		if errors.Is(err, autherror.ErrConflict) {
			s.metrics.Signup(metrics.OutcomeConflict)
		} else {
			s.metrics.Signup(metrics.OutcomeError)
		}
		return nil, err
	}

	token, err := s.tokens.Issue(SessionToken{ID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.metrics.Signup(metrics.OutcomeSuccess)
	s.logger.Info().Str("user_id", user.ID).Msg("user signed up")

	return &dto.AuthOutput{Token: token, User: dto.NewUserOutput(user)}, nil
}

// CreateAdmin validates input like Signup but stores the admin role. It is
// used by the create-admin command and issues no token.
func (s *UserService) CreateAdmin(ctx context.Context, input dto.SignupInput) (*domain.User, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	return s.CreateUser(ctx, input.Username, input.Email, input.Password, constant.RoleAdmin)
}

// CreateUser enforces email and username uniqueness, hashes the password and
// persists the record.
func (s *UserService) CreateUser(ctx context.Context, username, email, password, role string) (*domain.User, error) {
	if !constant.ValidRole(role) {
		return nil, autherror.NewValidationError(autherror.FieldError{Field: "role", Message: "must be one of: admin user"})
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	existing, err = s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrUsernameTaken
	}

	now := s.now()
	user := &domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.setPassword(user, password); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthOutput, error) {
	if input.Email == "" || input.Password == "" {
		s.metrics.Login(metrics.OutcomeValidationFailed)
		var fields []autherror.FieldError
		if input.Email == "" {
			fields = append(fields, autherror.FieldError{Field: "email", Message: "is required"})
		}
		if input.Password == "" {
			fields = append(fields, autherror.FieldError{Field: "password", Message: "is required"})
		}
		return nil, autherror.NewValidationError(fields...)
	}

	if s.loginMaxAttempts > 0 {
		count, err := s.repo.CountRecentFailedAttempts(ctx, input.Email, input.IPAddress, s.loginWindowMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to count login attempts: %w", err)
		}
		if count >= s.loginMaxAttempts {
			s.metrics.Login(metrics.OutcomeLocked)
			s.logger.Warn().Str("email", input.Email).Str("ip", input.IPAddress).Msg("login locked out")
			return nil, autherror.ErrTooManyLoginAttempts
		}
	}

	password := s.transit.Unwrap(input.Password)

	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Spend the same bcrypt time as a real comparison.
		s.hasher.Verify(password, s.dummyPasswordHash())
		s.recordLoginAttempt(ctx, input, false)
		s.metrics.Login(metrics.OutcomeInvalid)
		return nil, autherror.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.metrics.Login(metrics.OutcomeDisabled)
		return nil, autherror.ErrAccountDisabled
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordLoginAttempt(ctx, input, false)
		s.metrics.Login(metrics.OutcomeInvalid)
		return nil, autherror.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(SessionToken{ID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.recordLoginAttempt(ctx, input, true)
	s.metrics.Login(metrics.OutcomeSuccess)

	return &dto.AuthOutput{Token: token, User: dto.NewUserOutput(user)}, nil
}

// Authenticate resolves a bearer token to its session and the current user
// record. Missing, disabled or unknown users are all ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (SessionToken, *domain.User, error) {
	session, err := VerifySession(s.tokens, tokenString)
	if err != nil {
		return SessionToken{}, nil, fmt.Errorf("%w: %w", autherror.ErrUnauthorized, err)
	}

	user, err := s.repo.GetByID(ctx, session.ID)
	if err != nil {
		return SessionToken{}, nil, err
	}
	if user == nil || !user.IsActive {
		return SessionToken{}, nil, autherror.ErrUnauthorized
	}
	return session, user, nil
}

func (s *UserService) GetCurrentUser(ctx context.Context, session SessionToken) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	return user, nil
}

// ForgotPassword returns the same message whether or not the email is
// registered, and also for a malformed email, which is never looked up. A
// failed delivery clears the stored token and is only logged.
func (s *UserService) ForgotPassword(ctx context.Context, input dto.ForgotPasswordInput) (string, error) {
	if err := s.validator.Validate(input); err != nil {
		s.metrics.PasswordReset(metrics.StageRequested, metrics.OutcomeValidationFailed)
		s.logger.Debug().Err(err).Msg("forgot-password with invalid email")
		return constant.ForgotPasswordMessage, nil
	}

	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return "", err
	}
	if user == nil {
		s.metrics.PasswordReset(metrics.StageRequested, metrics.OutcomeUnknownEmail)
		return constant.ForgotPasswordMessage, nil
	}

	claims, err := NewPasswordReset(user.ID)
	if err != nil {
		return "", err
	}
	signed, err := s.tokens.Issue(claims)
	if err != nil {
		return "", fmt.Errorf("failed to issue reset token: %w", err)
	}

	expiry := s.now().Add(s.tokens.TTL(KindPasswordReset))
	if err := s.repo.SetResetToken(ctx, user.ID, signed, expiry); err != nil {
		return "", err
	}

	if s.mailer == nil {
		s.logger.Warn().Str("user_id", user.ID).Msg("no mailer configured, reset link not delivered")
		s.metrics.PasswordReset(metrics.StageRequested, metrics.OutcomeMailFailed)
		return constant.ForgotPasswordMessage, nil
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURL(signed)); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to send password reset email")
		if cerr := s.repo.ClearResetToken(ctx, user.ID); cerr != nil {
			s.logger.Error().Err(cerr).Str("user_id", user.ID).Msg("failed to clear reset token")
		}
		s.metrics.PasswordReset(metrics.StageRequested, metrics.OutcomeMailFailed)
		return constant.ForgotPasswordMessage, nil
	}

	s.metrics.PasswordReset(metrics.StageRequested, metrics.OutcomeSuccess)
	return constant.ForgotPasswordMessage, nil
}

// ResetPassword redeems a reset token. The token must verify as a password
// reset token and still be the stored, unexpired one; redemption is single
// use.
func (s *UserService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error {
	if err := s.validator.Validate(input); err != nil {
		return err
	}

	claims, err := VerifyPasswordReset(s.tokens, input.Token)
	if err != nil {
		s.metrics.PasswordReset(metrics.StageCompleted, metrics.OutcomeInvalidToken)
		return err
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	now := s.now()
	if user == nil || !user.HasValidResetToken(input.Token, now) {
		s.metrics.PasswordReset(metrics.StageCompleted, metrics.OutcomeInvalidToken)
		return autherror.ErrInvalidToken
	}

	if err := s.setPassword(user, input.Password); err != nil {
		return err
	}

	ok, err := s.repo.ConsumeResetToken(ctx, user.ID, input.Token, user.PasswordHash, now)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.PasswordReset(metrics.StageCompleted, metrics.OutcomeInvalidToken)
		return autherror.ErrInvalidToken
	}

	s.metrics.PasswordReset(metrics.StageCompleted, metrics.OutcomeSuccess)
	s.logger.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// Logout is stateless: sessions are not revoked server side and the client
// discards its token.
func (s *UserService) Logout(_ context.Context, session SessionToken) string {
	s.logger.Debug().Str("user_id", session.ID).Msg("user logged out")
	return constant.LogoutMessage
}

func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserOutput, error) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserOutput, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserOutput(&users[i]))
	}
	return out, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id string, input dto.UpdateRoleInput) (*dto.UserOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, id, input.Role); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *UserService) UpdateStatus(ctx context.Context, id string, input dto.UpdateStatusInput) (*dto.UserOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateActive(ctx, id, *input.IsActive); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *UserService) reload(ctx context.Context, id string) (*dto.UserOutput, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	out := dto.NewUserOutput(user)
	return &out, nil
}

// setPassword is the only place a plaintext password becomes a stored hash.
func (s *UserService) setPassword(user *domain.User, plaintext string) error {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

func (s *UserService) resetURL(token string) string {
	return s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *UserService) recordLoginAttempt(ctx context.Context, input dto.LoginInput, success bool) {
	if err := s.repo.RecordLoginAttempt(ctx, input.Email, input.IPAddress, success); err != nil {
		s.logger.Warn().Err(err).Str("email", input.Email).Msg("failed to record login attempt")
	}
}

func (s *UserService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
