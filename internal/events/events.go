package events

import "time"

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream and subject names.
const (
	StreamEvents = "FELIX_EVENTS"

	SubjectAuditEvent = "felix.events.audit"
)

// Audit event types.
const (
	EventTurnCompleted    = "turn_completed"
	EventRateLimited      = "rate_limited"
	EventTTSQuotaExceeded = "tts_quota_exceeded"
	EventTTSSynthesized   = "tts_synthesized"
)

// AuditEvent is published for every notable pipeline outcome and persisted
// by the audit consumer.
type AuditEvent struct {
	UserID    string    `json:"user_id"`
	EventType string    `json:"event_type"`
	Severity  string    `json:"severity"` // info, warn, error
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditPublisher is the narrow publishing interface services depend on.
type AuditPublisher interface {
	PublishAudit(event AuditEvent)
}
