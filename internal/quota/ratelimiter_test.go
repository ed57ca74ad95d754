package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, max int, window time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, max, window), mr
}

func TestRateLimiter_ExactlyThresholdAllowed(t *testing.T) {
	rl, _ := setupLimiter(t, 20, time.Minute)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		ok, err := rl.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, err := rl.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "request 21 should be rejected")
}

func TestRateLimiter_RejectionNotRecorded(t *testing.T) {
	rl, _ := setupLimiter(t, 2, time.Minute)
	ctx := context.Background()

	rl.Allow(ctx, "u1")
	rl.Allow(ctx, "u1")
	for i := 0; i < 5; i++ {
		ok, err := rl.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	usage, err := rl.Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, usage)
}

func TestRateLimiter_WindowRollsOver(t *testing.T) {
	rl, mr := setupLimiter(t, 2, time.Minute)
	ctx := context.Background()

	rl.Allow(ctx, "u1")
	rl.Allow(ctx, "u1")

	ok, err := rl.Allow(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)

	// miniredis does not advance wall-clock scores, so rewrite the members
	// to look a window old.
	mr.FastForward(2 * time.Minute)
	rewind(t, mr, "rate:chat:u1", 2*time.Minute)

	ok, err = rl.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok, "should be allowed after window elapses")
}

// rewind shifts every member's score back by d, simulating elapsed time.
func rewind(t *testing.T, mr *miniredis.Miniredis, key string, d time.Duration) {
	t.Helper()
	members, err := mr.ZMembers(key)
	if err != nil {
		return // key may have expired already
	}
	for _, m := range members {
		score, err := mr.ZScore(key, m)
		require.NoError(t, err)
		mr.ZRem(key, m)
		mr.ZAdd(key, score-float64(d.Milliseconds()), m)
	}
}

func TestRateLimiter_UsersIndependent(t *testing.T) {
	rl, _ := setupLimiter(t, 1, time.Minute)
	ctx := context.Background()

	ok, _ := rl.Allow(ctx, "u1")
	require.True(t, ok)
	ok, _ = rl.Allow(ctx, "u1")
	require.False(t, ok)

	ok, err := rl.Allow(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, ok, "u2 should be unaffected by u1's usage")
}
