package limiters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrVerificationRateLimited        = errors.New("verification rate limited")
	ErrVerificationLimiterUnavailable = errors.New("verification limiter unavailable")
)

// VerificationConfig bounds how many verification emails one account can
// trigger per window.
type VerificationConfig struct {
	Enabled       bool
	Window        time.Duration
	MaxDispatches int
	KeyPrefix     string
}

// VerificationLimiter is a Redis fixed-window counter keyed by account.
type VerificationLimiter struct {
	redis  redis.UniversalClient
	config VerificationConfig
}

func NewVerificationLimiter(redisClient redis.UniversalClient, cfg VerificationConfig) *VerificationLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "afvd"
	}
	return &VerificationLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Allow counts one dispatch for account. It returns ErrVerificationRateLimited
// once the window's budget is spent.
func (l *VerificationLimiter) Allow(ctx context.Context, account string) error {
	if l == nil || l.redis == nil || !l.config.Enabled {
		return nil
	}
	account = strings.ToLower(strings.TrimSpace(account))
	if account == "" {
		return nil
	}
	return l.enforceFixedWindow(ctx, l.key(account))
}

func (l *VerificationLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrVerificationLimiterUnavailable, err)
		}
	}

	if count > int64(l.config.MaxDispatches) {
		return ErrVerificationRateLimited
	}

	return nil
}

func (l *VerificationLimiter) key(account string) string {
	return l.config.KeyPrefix + ":" + account
}
