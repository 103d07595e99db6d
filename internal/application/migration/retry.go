package migration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/integration"
	"github.com/erp/catalog-migrator/internal/infrastructure/telemetry"
)

// ErrSessionRefresh marks a failed re-authentication. A run cannot continue
// past it.
var ErrSessionRefresh = errors.New("migration: session refresh failed")

// TokenSource hands out the storefront bearer token
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// RetryPolicy bounds how often a storefront call is repeated
type RetryPolicy struct {
	// MaxUniqueRetries is the number of identifier mutations after a
	// uniqueness rejection
	MaxUniqueRetries int
	// MaxExpiryRetries caps re-authentications per call; 0 means unbounded
	MaxExpiryRetries int
}

// DefaultRetryPolicy retries a uniqueness rejection once and session expiry
// without limit
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxUniqueRetries: 1}
}

// Call performs one storefront request with token
type Call func(ctx context.Context, token string) error

// Retrier runs storefront calls, refreshing the session on expiry and
// mutating identifiers on uniqueness rejections
type Retrier struct {
	session TokenSource
	policy  RetryPolicy
	metrics *telemetry.MigrationMetrics
	logger  *zap.Logger
}

// NewRetrier creates a Retrier. metrics may be nil.
func NewRetrier(session TokenSource, policy RetryPolicy, metrics *telemetry.MigrationMetrics, logger *zap.Logger) *Retrier {
	return &Retrier{
		session: session,
		policy:  policy,
		metrics: metrics,
		logger:  logger,
	}
}

// Do runs call until it succeeds or fails terminally. onUnique, when set,
// receives each uniqueness rejection within the policy budget and must
// change the offending identifier before the call is repeated.
func (r *Retrier) Do(ctx context.Context, op string, call Call, onUnique func(err error)) error {
	token, err := r.session.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionRefresh, err)
	}

	expiries, uniques := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := call(ctx, token)
		switch {
		case err == nil:
			return nil

		case integration.IsSessionExpired(err):
			expiries++
			if r.policy.MaxExpiryRetries > 0 && expiries > r.policy.MaxExpiryRetries {
				return err
			}
			r.metrics.RecordRetry(ctx, op, "session_expired")
			r.logger.Info("Storefront session expired, re-authenticating",
				zap.String("operation", op),
				zap.Int("attempt", expiries),
			)
			if token, err = r.session.Refresh(ctx); err != nil {
				return fmt.Errorf("%w: %w", ErrSessionRefresh, err)
			}

		case onUnique != nil && integration.IsUnique(err) && uniques < r.policy.MaxUniqueRetries:
			uniques++
			r.metrics.RecordRetry(ctx, op, "unique")
			onUnique(err)

		default:
			return err
		}
	}
}

// IsFatal reports whether err must stop the whole run rather than a single
// entity
func IsFatal(err error) bool {
	return errors.Is(err, ErrSessionRefresh) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
