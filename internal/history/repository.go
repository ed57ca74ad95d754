package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store defines chat transcript persistence.
type Store interface {
	Append(ctx context.Context, userID string, sender Sender, text string, ts time.Time) error
	// Recent returns up to limit messages for the user, oldest-first.
	Recent(ctx context.Context, userID string, limit int) ([]Message, error)
}

// PostgresStore implements Store on the chat_messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, userID string, sender Sender, text string, ts time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_messages (user_id, sender, text, created_at)
		 VALUES ($1, $2, $3, $4)`,
		userID, string(sender), text, ts,
	)
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}
	return nil
}

// Recent queries newest-first with a LIMIT, then reverses in memory so
// callers always see chronological order.
func (s *PostgresStore) Recent(ctx context.Context, userID string, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, sender, text, created_at
		 FROM chat_messages
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var sender string
		if err := rows.Scan(&m.ID, &m.UserID, &sender, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		m.Sender = Sender(sender)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
