package profile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store defines profile persistence. Merge is last-write-wins per field;
// fields not present in the update are preserved.
type Store interface {
	Get(ctx context.Context, userID string) (map[string]string, error)
	Merge(ctx context.Context, userID string, facts map[string]string) error
}

// PostgresStore implements Store on the user_profiles table, one row per
// (user_id, field).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT field, value FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	defer rows.Close()

	profile := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scanning profile field: %w", err)
		}
		profile[field] = value
	}
	return profile, rows.Err()
}

func (s *PostgresStore) Merge(ctx context.Context, userID string, facts map[string]string) error {
	if len(facts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for field, value := range facts {
		batch.Queue(
			`INSERT INTO user_profiles (user_id, field, value, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (user_id, field)
			 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			userID, field, value,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range facts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("merging profile fact: %w", err)
		}
	}
	return nil
}
