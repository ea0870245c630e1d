package redis_test

import (
	"context"
	"testing"
	"time"

	"blink-pin/internal/client"
	"blink-pin/internal/config"
	pinredis "blink-pin/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, maxAttempts int) (*miniredis.Miniredis, *pinredis.PINAttemptCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := client.WrapRedisClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	return mr, pinredis.NewPINAttemptCache(rc, config.AttemptConfig{
		MaxAttempts: maxAttempts,
		Lockout:     15 * time.Minute,
		Window:      10 * time.Minute,
	})
}

func TestRecordFailureBlocksAtLimit(t *testing.T) {
	mr, cache := newCache(t, 3)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		st, err := cache.RecordFailure(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, i, st.Failures)
		assert.False(t, st.Blocked)
	}
	assert.Equal(t, 10*time.Minute, mr.TTL("blink_pin_retry:abc"))

	st, err := cache.RecordFailure(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, st.Blocked)
	assert.Equal(t, 15*time.Minute, st.RetryAfter)

	st, err = cache.Status(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, st.Blocked)
	assert.Equal(t, 0, st.Failures)
	assert.Equal(t, 15*time.Minute, st.RetryAfter)

	mr.FastForward(16 * time.Minute)
	st, err = cache.Status(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, st.Blocked)
}

func TestStatusForUnknownKey(t *testing.T) {
	_, cache := newCache(t, 5)

	st, err := cache.Status(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Failures)
	assert.False(t, st.Blocked)
}

func TestResetClearsCounterAndBlock(t *testing.T) {
	mr, cache := newCache(t, 1)
	ctx := context.Background()

	st, err := cache.RecordFailure(ctx, "abc")
	require.NoError(t, err)
	require.True(t, st.Blocked)

	require.NoError(t, cache.Reset(ctx, "abc"))
	assert.False(t, mr.Exists("blink_pin_block:abc"))

	st, err = cache.Status(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, st.Blocked)
	assert.Equal(t, 0, st.Failures)
}

func TestKeysAreIsolated(t *testing.T) {
	_, cache := newCache(t, 2)
	ctx := context.Background()

	_, err := cache.RecordFailure(ctx, "a")
	require.NoError(t, err)
	_, err = cache.RecordFailure(ctx, "a")
	require.NoError(t, err)

	st, err := cache.Status(ctx, "b")
	require.NoError(t, err)
	assert.False(t, st.Blocked)
	assert.Equal(t, 0, st.Failures)
}
