package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/AnthoniusHendriyanto/backoffice-auth/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

type TokenKind string

const (
	KindSession           TokenKind = "session"
	KindPasswordReset     TokenKind = "password_reset"
	KindEmailVerification TokenKind = "email_verification"
	KindRefresh           TokenKind = "refresh"
)

const (
	DefaultSessionTokenTTL      = 24 * time.Hour
	DefaultResetTokenTTL        = time.Hour
	DefaultVerificationTokenTTL = 24 * time.Hour
	DefaultRefreshTokenTTL      = 7 * 24 * time.Hour
)

var errUnknownTokenKind = errors.New("unknown token kind")

// Token is one of SessionToken, PasswordResetToken, EmailVerificationToken
// or RefreshToken.
type Token interface {
	Kind() TokenKind
	isToken()
}

type SessionToken struct {
	ID   string
	Role string
}

type PasswordResetToken struct {
	UserID     string
	ResetToken string
}

type EmailVerificationToken struct {
	UserID            string
	VerificationToken string
}

type RefreshToken struct {
	UserID       string
	RefreshToken string
}

func (SessionToken) Kind() TokenKind           { return KindSession }
func (PasswordResetToken) Kind() TokenKind     { return KindPasswordReset }
func (EmailVerificationToken) Kind() TokenKind { return KindEmailVerification }
func (RefreshToken) Kind() TokenKind           { return KindRefresh }

func (SessionToken) isToken()           {}
func (PasswordResetToken) isToken()     {}
func (EmailVerificationToken) isToken() {}
func (RefreshToken) isToken()           {}

type TokenGenerator interface {
	Issue(token Token) (string, error)
	Verify(kind TokenKind, tokenString string) (Token, error)
	TTL(kind TokenKind) time.Duration
}

// jwtClaims is the wire shape shared by every kind. Type is the
// discriminator checked before any kind-specific claim is trusted.
type jwtClaims struct {
	jwt.RegisteredClaims
	Type              string `json:"type"`
	SubjectID         string `json:"id,omitempty"`
	Role              string `json:"role,omitempty"`
	UserID            string `json:"userId,omitempty"`
	ResetToken        string `json:"resetToken,omitempty"`
	VerificationToken string `json:"verificationToken,omitempty"`
	RefreshToken      string `json:"refreshToken,omitempty"`
}

type TokenTTLs struct {
	Session           time.Duration
	PasswordReset     time.Duration
	EmailVerification time.Duration
	Refresh           time.Duration
}

type TokenService struct {
	Secret string
	TTLs   TokenTTLs
	now    func() time.Time
}

func NewTokenService(secret string, ttls TokenTTLs) *TokenService {
	if ttls.Session <= 0 {
		ttls.Session = DefaultSessionTokenTTL
	}
	if ttls.PasswordReset <= 0 {
		ttls.PasswordReset = DefaultResetTokenTTL
	}
	if ttls.EmailVerification <= 0 {
		ttls.EmailVerification = DefaultVerificationTokenTTL
	}
	if ttls.Refresh <= 0 {
		ttls.Refresh = DefaultRefreshTokenTTL
	}
	return &TokenService{Secret: secret, TTLs: ttls, now: time.Now}
}

// WithClock replaces the time source used for issuing and verifying.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	ts.now = now
	return ts
}

func (ts *TokenService) TTL(kind TokenKind) time.Duration {
	switch kind {
	case KindSession:
		return ts.TTLs.Session
	case KindPasswordReset:
		return ts.TTLs.PasswordReset
	case KindEmailVerification:
		return ts.TTLs.EmailVerification
	case KindRefresh:
		return ts.TTLs.Refresh
	default:
		return 0
	}
}

func (ts *TokenService) Issue(token Token) (string, error) {
	if token == nil {
		return "", errUnknownTokenKind
	}

	claims := jwtClaims{Type: string(token.Kind())}
	switch t := token.(type) {
	case SessionToken:
		claims.SubjectID, claims.Role = t.ID, t.Role
	case PasswordResetToken:
		claims.UserID, claims.ResetToken = t.UserID, t.ResetToken
	case EmailVerificationToken:
		claims.UserID, claims.VerificationToken = t.UserID, t.VerificationToken
	case RefreshToken:
		claims.UserID, claims.RefreshToken = t.UserID, t.RefreshToken
	default:
		return "", errUnknownTokenKind
	}

	now := ts.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.TTL(token.Kind()))),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.Secret))
}

// Verify checks signature, expiry and the type discriminator. Any failure is
// reported as an error wrapping autherror.ErrInvalidToken.
func (ts *TokenService) Verify(kind TokenKind, tokenString string) (Token, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", autherror.ErrInvalidToken, err)
	}

	if TokenKind(claims.Type) != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", autherror.ErrInvalidToken, kind, claims.Type)
	}

	var token Token
	switch kind {
	case KindSession:
		if claims.SubjectID == "" {
			break
		}
		token = SessionToken{ID: claims.SubjectID, Role: claims.Role}
	case KindPasswordReset:
		if claims.UserID == "" || claims.ResetToken == "" {
			break
		}
		token = PasswordResetToken{UserID: claims.UserID, ResetToken: claims.ResetToken}
	case KindEmailVerification:
		if claims.UserID == "" || claims.VerificationToken == "" {
			break
		}
		token = EmailVerificationToken{UserID: claims.UserID, VerificationToken: claims.VerificationToken}
	case KindRefresh:
		if claims.UserID == "" || claims.RefreshToken == "" {
			break
		}
		token = RefreshToken{UserID: claims.UserID, RefreshToken: claims.RefreshToken}
	default:
		return nil, fmt.Errorf("%w: %w", autherror.ErrInvalidToken, errUnknownTokenKind)
	}
	if token == nil {
		return nil, fmt.Errorf("%w: missing %s claims", autherror.ErrInvalidToken, kind)
	}
	return token, nil
}

func VerifySession(g TokenGenerator, tokenString string) (SessionToken, error) {
	return verifyAs[SessionToken](g, KindSession, tokenString)
}

func VerifyPasswordReset(g TokenGenerator, tokenString string) (PasswordResetToken, error) {
	return verifyAs[PasswordResetToken](g, KindPasswordReset, tokenString)
}

func VerifyEmailVerification(g TokenGenerator, tokenString string) (EmailVerificationToken, error) {
	return verifyAs[EmailVerificationToken](g, KindEmailVerification, tokenString)
}

func VerifyRefresh(g TokenGenerator, tokenString string) (RefreshToken, error) {
	return verifyAs[RefreshToken](g, KindRefresh, tokenString)
}

func verifyAs[T Token](g TokenGenerator, kind TokenKind, tokenString string) (T, error) {
	var zero T
	token, err := g.Verify(kind, tokenString)
	if err != nil {
		return zero, err
	}
	typed, ok := token.(T)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected claims for %s token", autherror.ErrInvalidToken, kind)
	}
	return typed, nil
}

func NewPasswordReset(userID string) (PasswordResetToken, error) {
	secret, err := randomHex(32)
	if err != nil {
		return PasswordResetToken{}, err
	}
	return PasswordResetToken{UserID: userID, ResetToken: secret}, nil
}

func NewEmailVerification(userID string) (EmailVerificationToken, error) {
	secret, err := randomHex(32)
	if err != nil {
		return EmailVerificationToken{}, err
	}
	return EmailVerificationToken{UserID: userID, VerificationToken: secret}, nil
}

func NewRefresh(userID string) (RefreshToken, error) {
	secret, err := randomHex(32)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{UserID: userID, RefreshToken: secret}, nil
}

// HashToken returns the sha256 hex digest of token for at-rest storage.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
