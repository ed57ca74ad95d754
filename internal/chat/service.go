package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felix-chat/felix/internal/api"
	"github.com/felix-chat/felix/internal/emotion"
	"github.com/felix-chat/felix/internal/events"
	"github.com/felix-chat/felix/internal/history"
	"github.com/felix-chat/felix/internal/llm"
	"github.com/felix-chat/felix/internal/metrics"
	"github.com/felix-chat/felix/internal/quota"
)

// Service runs one conversational turn end to end: rate gate, prompt
// assembly, completion, persistence, tone decoration, audit event.
type Service struct {
	assembler  *Assembler
	completion llm.Provider
	histStore  history.Store
	limiter    *quota.RateLimiter
	audit      events.AuditPublisher
	enableTone bool
}

func NewService(
	assembler *Assembler,
	completion llm.Provider,
	histStore history.Store,
	limiter *quota.RateLimiter,
	audit events.AuditPublisher,
	enableTone bool,
) *Service {
	if audit == nil {
		audit = events.NopPublisher{}
	}
	return &Service{
		assembler:  assembler,
		completion: completion,
		histStore:  histStore,
		limiter:    limiter,
		audit:      audit,
		enableTone: enableTone,
	}
}

// Respond produces the user-visible reply for one inbound message.
func (s *Service) Respond(ctx context.Context, userID, message string) (string, error) {
	allowed, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		// A broken limiter must not take the service down with it.
		slog.Warn("rate limiter failed, allowing request", "error", err, "user_id", userID)
	} else if !allowed {
		metrics.RateLimitRejectionsTotal.Inc()
		metrics.ChatTurnsTotal.WithLabelValues("rate_limited").Inc()
		s.audit.PublishAudit(events.AuditEvent{
			UserID:    userID,
			EventType: events.EventRateLimited,
			Severity:  "warn",
			Details:   "chat request rejected by sliding-window limiter",
		})
		return "", api.ErrRateLimited
	}

	prompt, err := s.assembler.Build(ctx, userID, message)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("assembling prompt: %w", err)
	}

	reply, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		// Fatal: nothing is persisted for a turn without a reply.
		metrics.ChatTurnsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("completion: %w", err)
	}

	// User message first, raw reply second. The stored transcript always
	// holds the undecorated reply.
	now := time.Now()
	if err := s.histStore.Append(ctx, userID, history.SenderUser, message, now); err != nil {
		slog.Error("persisting user message", "error", err, "user_id", userID)
	}
	if err := s.histStore.Append(ctx, userID, history.SenderBot, reply, now.Add(time.Millisecond)); err != nil {
		slog.Error("persisting bot reply", "error", err, "user_id", userID)
	}

	visible := reply
	if s.enableTone {
		visible = emotion.ApplyTone(reply, message)
	}

	metrics.ChatTurnsTotal.WithLabelValues("ok").Inc()
	s.audit.PublishAudit(events.AuditEvent{
		UserID:    userID,
		EventType: events.EventTurnCompleted,
		Severity:  "info",
		Details:   fmt.Sprintf("prompt messages: %d, reply chars: %d", len(prompt), len(reply)),
	})

	return visible, nil
}

// History returns the stored transcript, oldest-first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]history.Message, error) {
	return s.histStore.Recent(ctx, userID, limit)
}
