package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "rate:chat:"

// RateLimiter counts a user's chat requests in a trailing window using a
// Redis sorted set. A rejected attempt is not recorded, so hammering a
// closed gate does not extend the lockout. Approximate under concurrent
// same-user bursts, which is acceptable for a soft limiter.
type RateLimiter struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
}

func NewRateLimiter(rdb redis.Cmdable, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window}
}

// Allow reports whether the user may proceed. When allowed, the attempt is
// recorded against the current instant.
func (rl *RateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := rateKeyPrefix + userID
	now := time.Now()
	windowStart := float64(now.Add(-rl.window).UnixMilli())

	pipe := rl.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatFloat(windowStart, 'f', 0, 64))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter pipeline (clean+count): %w", err)
	}

	count := countCmd.Val()
	if count >= int64(rl.max) {
		return false, nil
	}

	pipe2 := rl.rdb.Pipeline()
	member := fmt.Sprintf("%d:%d", now.UnixNano(), count)
	pipe2.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	pipe2.Expire(ctx, key, rl.window+30*time.Second)
	if _, err := pipe2.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter pipeline (add): %w", err)
	}

	return true, nil
}

// Usage returns the number of recorded requests currently in the window.
func (rl *RateLimiter) Usage(ctx context.Context, userID string) (int, error) {
	key := rateKeyPrefix + userID
	now := time.Now()
	windowStart := strconv.FormatFloat(float64(now.Add(-rl.window).UnixMilli()), 'f', 0, 64)
	nowMs := strconv.FormatFloat(float64(now.UnixMilli()), 'f', 0, 64)

	count, err := rl.rdb.ZCount(ctx, key, windowStart, nowMs).Result()
	if err != nil {
		return 0, fmt.Errorf("getting rate usage: %w", err)
	}
	return int(count), nil
}
