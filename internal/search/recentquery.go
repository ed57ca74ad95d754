package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecentQueryStore records which normalized queries a user has searched
// recently, so the same query is not re-issued within the dedup window.
type RecentQueryStore interface {
	Record(ctx context.Context, userID, normalizedQuery string, ts time.Time) error
	ExistsWithin(ctx context.Context, userID, normalizedQuery string, window time.Duration) (bool, error)
}

// RedisRecentQueryStore keeps one sorted set per user, scored by unix
// milliseconds, with the normalized query as the member. A member's score
// is refreshed on re-record, and the key expires on its own.
type RedisRecentQueryStore struct {
	client redis.Cmdable
	keyTTL time.Duration
}

func NewRedisRecentQueryStore(client redis.Cmdable, keyTTL time.Duration) *RedisRecentQueryStore {
	return &RedisRecentQueryStore{client: client, keyTTL: keyTTL}
}

func queryKey(userID string) string {
	return "recentq:" + userID
}

func (s *RedisRecentQueryStore) Record(ctx context.Context, userID, normalizedQuery string, ts time.Time) error {
	key := queryKey(userID)
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(ts.UnixMilli()), Member: normalizedQuery})
	pipe.Expire(ctx, key, s.keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording recent query: %w", err)
	}
	return nil
}

func (s *RedisRecentQueryStore) ExistsWithin(ctx context.Context, userID, normalizedQuery string, window time.Duration) (bool, error) {
	score, err := s.client.ZScore(ctx, queryKey(userID), normalizedQuery).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking recent query: %w", err)
	}

	cutoff := float64(time.Now().Add(-window).UnixMilli())
	return score >= cutoff, nil
}

// Normalize lowercases and trims a query. Exact equality of normalized
// text is the only dedup criterion; no fuzzy matching.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
