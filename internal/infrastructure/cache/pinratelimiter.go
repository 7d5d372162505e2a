package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pinAttemptPrefix      = "override:pin:attempts:"
	pinAttemptMaxFailures = 5
	pinAttemptLockoutTTL  = 15 * time.Minute
)

// PINAttemptLimiter tracks failed PIN verifications per user in Redis.
// After pinAttemptMaxFailures consecutive failures the user is locked out
// until the counter key expires.
type PINAttemptLimiter struct {
	client      *redis.Client
	maxFailures int64
	lockoutTTL  time.Duration
}

func NewPINAttemptLimiter(client *redis.Client) *PINAttemptLimiter {
	return &PINAttemptLimiter{
		client:      client,
		maxFailures: pinAttemptMaxFailures,
		lockoutTTL:  pinAttemptLockoutTTL,
	}
}

func (l *PINAttemptLimiter) IsLocked(ctx context.Context, key string) (bool, error) {
	attempts, err := l.client.Get(ctx, l.key(key)).Int64()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to check pin attempts: %w", err)
	}
	return attempts >= l.maxFailures, nil
}

// RecordFailure increments the failure counter and refreshes its expiry,
// so the lockout window is measured from the most recent failure.
func (l *PINAttemptLimiter) RecordFailure(ctx context.Context, key string) (int64, error) {
	redisKey := l.key(key)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.lockoutTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record pin failure: %w", err)
	}

	return incr.Val(), nil
}

func (l *PINAttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset pin attempts: %w", err)
	}
	return nil
}

func (l *PINAttemptLimiter) key(identifier string) string {
	return pinAttemptPrefix + identifier
}
