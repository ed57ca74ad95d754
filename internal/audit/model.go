package audit

import (
	"time"

	"github.com/google/uuid"
)

// Log is one persisted audit entry, matching the audit_logs table.
type Log struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	EventType string    `json:"event_type"`
	Severity  string    `json:"severity"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
