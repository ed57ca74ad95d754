package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felix-chat/felix/internal/history"
	"github.com/felix-chat/felix/internal/llm"
	"github.com/felix-chat/felix/internal/metrics"
	"github.com/felix-chat/felix/internal/profile"
	"github.com/felix-chat/felix/internal/search"
)

const maxSearchSnippets = 3

// searchInfoPrefix marks the bot-authored history row that preserves search
// snippets, so they stay visible to the model on later turns.
const searchInfoPrefix = "[Search Info] "

// Options are the assembler's tuning knobs and feature flags. Earlier
// revisions of this service kept parallel handler variants instead; the
// flags consolidate them into one pipeline.
type Options struct {
	HistoryLimit      int
	TokenBudget       int
	ReplyTokenReserve int

	EnableProfile bool
	EnableSearch  bool
}

// Assembler turns (stored history, user profile, live search results) into
// the exact ordered message sequence for the completion API:
//
//	persona, [profile], history oldest-first, [search note], user message
//
// The search note sits immediately before the final user entry, after
// history. That insertion point is a pinned contract.
type Assembler struct {
	histStore    history.Store
	profileStore profile.Store
	guard        *search.Guard
	provider     search.Provider
	opts         Options
}

func NewAssembler(
	histStore history.Store,
	profileStore profile.Store,
	guard *search.Guard,
	provider search.Provider,
	opts Options,
) *Assembler {
	return &Assembler{
		histStore:    histStore,
		profileStore: profileStore,
		guard:        guard,
		provider:     provider,
		opts:         opts,
	}
}

// Build assembles the prompt for one turn. It has two side effects, both
// deliberate: self-disclosed facts in the message are merged into the
// profile store, and an issued search persists its query record plus a
// bot-authored history row with the snippets.
func (a *Assembler) Build(ctx context.Context, userID, message string) ([]llm.Message, error) {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: Persona}}

	if a.opts.EnableProfile {
		if note := a.profileNote(ctx, userID, message); note != "" {
			msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: note})
		}
	}

	past, err := a.histStore.Recent(ctx, userID, a.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	for _, m := range past {
		role := llm.RoleUser
		if m.Sender == history.SenderBot {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Text})
	}

	if a.opts.EnableSearch {
		if note := a.searchNote(ctx, userID, message); note != "" {
			msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: note})
		}
	}

	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	return a.trim(msgs), nil
}

// profileNote merges newly disclosed facts and summarizes the profile.
// Store failures degrade to "no note": a broken profile store should not
// fail the whole turn.
func (a *Assembler) profileNote(ctx context.Context, userID, message string) string {
	if facts := profile.Extract(message); len(facts) > 0 {
		if err := a.profileStore.Merge(ctx, userID, facts); err != nil {
			slog.Warn("merging profile facts", "error", err, "user_id", userID)
		}
	}

	known, err := a.profileStore.Get(ctx, userID)
	if err != nil {
		slog.Warn("loading profile", "error", err, "user_id", userID)
		return ""
	}
	if len(known) == 0 {
		return ""
	}

	name := known[profile.FieldName]
	hobby := known[profile.FieldHobby]
	if name == "" {
		name = "unknown"
	}
	if hobby == "" {
		hobby = "unknown"
	}
	return fmt.Sprintf("The user's name is %s and their hobby is %s.", name, hobby)
}

// searchNote runs the trigger and dedup checks and, when a search is
// issued, returns the snippet note. Provider failures are swallowed: the
// pipeline continues without augmentation.
func (a *Assembler) searchNote(ctx context.Context, userID, message string) string {
	if a.provider == nil || !search.ShouldSearch(message) {
		return ""
	}
	if a.guard.IsDuplicate(ctx, userID, message) {
		metrics.SearchAugmentationsTotal.WithLabelValues("duplicate").Inc()
		slog.Debug("skipping duplicate search", "user_id", userID)
		return ""
	}

	results, err := a.provider.Search(ctx, message)
	if err != nil {
		metrics.SearchAugmentationsTotal.WithLabelValues("error").Inc()
		slog.Warn("search provider failed, continuing without augmentation", "error", err, "user_id", userID)
		return ""
	}
	if len(results) == 0 {
		metrics.SearchAugmentationsTotal.WithLabelValues("empty").Inc()
		return ""
	}
	if len(results) > maxSearchSnippets {
		results = results[:maxSearchSnippets]
	}

	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = r.Title + ": " + r.Snippet
	}
	snippets := strings.Join(lines, "\n")

	if err := a.guard.Record(ctx, userID, message); err != nil {
		slog.Warn("recording search query", "error", err, "user_id", userID)
	}

	// Keep the snippets in the transcript so later turns see them.
	if err := a.histStore.Append(ctx, userID, history.SenderBot, searchInfoPrefix+snippets, time.Now()); err != nil {
		slog.Warn("persisting search info", "error", err, "user_id", userID)
	}

	metrics.SearchAugmentationsTotal.WithLabelValues("ok").Inc()
	return "Live web search results relevant to the user's message:\n" + snippets
}

// trim drops the second-oldest entry until the estimated prompt size fits
// the budget minus the reply reserve. The persona always survives; the
// estimate is characters/4, a soft control rather than real tokenization.
func (a *Assembler) trim(msgs []llm.Message) []llm.Message {
	budget := a.opts.TokenBudget - a.opts.ReplyTokenReserve
	for len(msgs) > 2 && estimateTokens(msgs) > budget {
		msgs = append(msgs[:1], msgs[2:]...)
	}
	return msgs
}

func estimateTokens(msgs []llm.Message) int {
	total := 0
	for _, m := range msgs {
		total += len(m.Content) / 4
	}
	return total
}
