package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestPINAttemptLimiter_LockAfterMaxFailures(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewPINAttemptLimiter(client)
	ctx := context.Background()

	locked, err := limiter.IsLocked(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, locked)

	for i := 0; i < pinAttemptMaxFailures; i++ {
		count, err := limiter.RecordFailure(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), count)
	}

	locked, err = limiter.IsLocked(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestPINAttemptLimiter_ResetClearsLock(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewPINAttemptLimiter(client)
	ctx := context.Background()

	for i := 0; i < pinAttemptMaxFailures; i++ {
		_, err := limiter.RecordFailure(ctx, "user-2")
		require.NoError(t, err)
	}

	require.NoError(t, limiter.Reset(ctx, "user-2"))

	locked, err := limiter.IsLocked(ctx, "user-2")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestPINAttemptLimiter_LockoutExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	limiter := NewPINAttemptLimiter(client)
	ctx := context.Background()

	for i := 0; i < pinAttemptMaxFailures; i++ {
		_, err := limiter.RecordFailure(ctx, "user-3")
		require.NoError(t, err)
	}

	mr.FastForward(pinAttemptLockoutTTL)

	locked, err := limiter.IsLocked(ctx, "user-3")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestPINAttemptLimiter_KeysAreIndependent(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewPINAttemptLimiter(client)
	ctx := context.Background()

	for i := 0; i < pinAttemptMaxFailures; i++ {
		_, err := limiter.RecordFailure(ctx, "user-a")
		require.NoError(t, err)
	}

	locked, err := limiter.IsLocked(ctx, "user-b")
	require.NoError(t, err)
	assert.False(t, locked)
}
