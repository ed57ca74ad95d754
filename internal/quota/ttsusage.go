package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TTSUsageStore is the per-user per-day character ledger behind the
// speech-synthesis quota.
type TTSUsageStore interface {
	// Get returns the recorded character count for the user on the given day.
	Get(ctx context.Context, userID string, day time.Time) (int, error)
	// Add increments the user's counter for the given day.
	Add(ctx context.Context, userID string, day time.Time, chars int) error
}

// TTSTracker gates synthesis calls against a daily character cap. Days are
// UTC calendar days; a new day implicitly starts the counter at zero.
type TTSTracker struct {
	store TTSUsageStore
	cap   int
	now   func() time.Time
}

func NewTTSTracker(store TTSUsageStore, dailyCap int) *TTSTracker {
	return &TTSTracker{store: store, cap: dailyCap, now: time.Now}
}

// Day truncates an instant to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Check reports whether synthesizing chars more characters would exceed the
// daily cap. It must be called before invoking the synthesis provider.
func (t *TTSTracker) Check(ctx context.Context, userID string, chars int) (bool, error) {
	used, err := t.store.Get(ctx, userID, Day(t.now()))
	if err != nil {
		return false, fmt.Errorf("reading tts usage: %w", err)
	}
	return used+chars > t.cap, nil
}

// Add records characters actually sent to the synthesis provider. Called
// only after a successful synthesis.
func (t *TTSTracker) Add(ctx context.Context, userID string, chars int) error {
	return t.store.Add(ctx, userID, Day(t.now()), chars)
}

// Cap returns the configured daily character cap.
func (t *TTSTracker) Cap() int {
	return t.cap
}

// PostgresTTSUsageStore implements TTSUsageStore on the tts_usage table,
// one row per (user_id, day).
type PostgresTTSUsageStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTTSUsageStore(pool *pgxpool.Pool) *PostgresTTSUsageStore {
	return &PostgresTTSUsageStore{pool: pool}
}

func (s *PostgresTTSUsageStore) Get(ctx context.Context, userID string, day time.Time) (int, error) {
	var chars int
	err := s.pool.QueryRow(ctx,
		`SELECT char_count FROM tts_usage WHERE user_id = $1 AND day = $2`,
		userID, day,
	).Scan(&chars)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying tts usage: %w", err)
	}
	return chars, nil
}

func (s *PostgresTTSUsageStore) Add(ctx context.Context, userID string, day time.Time, chars int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tts_usage (user_id, day, char_count, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, day)
		 DO UPDATE SET char_count = tts_usage.char_count + EXCLUDED.char_count, updated_at = NOW()`,
		userID, day, chars,
	)
	if err != nil {
		return fmt.Errorf("recording tts usage: %w", err)
	}
	return nil
}
