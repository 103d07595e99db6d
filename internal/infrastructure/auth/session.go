package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/integration"
)

// Common errors
var (
	ErrMissingCredentials = errors.New("auth: storefront email is required")
	ErrEmptyToken         = errors.New("auth: issuer returned an empty token")
)

// DefaultRefreshSkew is how long before expiry a token is renewed
const DefaultRefreshSkew = 30 * time.Second

// Credentials identify the staff account used for the migration
type Credentials struct {
	Email    string
	Password string
}

// Session owns the bearer token of one migration run. The token is issued
// lazily, replaced wholesale on Refresh and renewed ahead of its exp claim.
// It is safe for concurrent use.
type Session struct {
	issuer integration.TokenIssuer
	creds  Credentials
	skew   time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	issued    int
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithRefreshSkew sets how long before expiry the token is renewed
func WithRefreshSkew(d time.Duration) SessionOption {
	return func(s *Session) {
		s.skew = d
	}
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger sets the session logger
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates a session that logs in through issuer
func NewSession(issuer integration.TokenIssuer, creds Credentials, opts ...SessionOption) (*Session, error) {
	if creds.Email == "" {
		return nil, ErrMissingCredentials
	}
	s := &Session{
		issuer: issuer,
		creds:  creds,
		skew:   DefaultRefreshSkew,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Token returns the current token, logging in first when there is none or
// when the known expiry is within the refresh skew
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && !s.expiringLocked() {
		return s.token, nil
	}
	return s.refreshLocked(ctx)
}

// Refresh discards the current token and logs in again
func (s *Session) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// Issued returns how many tokens the session has obtained
func (s *Session) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// ExpiresAt returns the exp claim of the current token; zero when unknown
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) expiringLocked() bool {
	if s.expiresAt.IsZero() {
		return false
	}
	return !s.now().Add(s.skew).Before(s.expiresAt)
}

func (s *Session) refreshLocked(ctx context.Context) (string, error) {
	token, err := s.issuer.CreateToken(ctx, s.creds.Email, s.creds.Password)
	if err != nil {
		return "", fmt.Errorf("auth: create token: %w", err)
	}
	if token == "" {
		return "", ErrEmptyToken
	}

	s.token = token
	s.issued++
	s.expiresAt, _ = TokenExpiry(token)

	fields := []zap.Field{zap.Int("issued", s.issued)}
	if !s.expiresAt.IsZero() {
		fields = append(fields, zap.Time("expires_at", s.expiresAt))
	}
	s.logger.Info("Storefront session token issued", fields...)
	return token, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The storefront is the only party that can verify it; the claim is only
// used to schedule renewal.
func TokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
