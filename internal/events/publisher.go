package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher publishes pipeline events to NATS JetStream. Publishing is
// best-effort: a failed publish is logged, never surfaced to the request.
type Publisher struct {
	js jetstream.JetStream
}

func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

func (p *Publisher) PublishAudit(event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshaling audit event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := p.js.Publish(ctx, SubjectAuditEvent, data); err != nil {
		slog.Warn("publishing audit event", "error", err, "event_type", event.EventType)
	}
}

// NopPublisher discards events; used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishAudit(AuditEvent) {}
