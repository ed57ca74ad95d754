package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felix-chat/felix/internal/api"
	"github.com/felix-chat/felix/internal/events"
	"github.com/felix-chat/felix/internal/history"
	"github.com/felix-chat/felix/internal/llm"
	"github.com/felix-chat/felix/internal/quota"
)

type fakeCompletion struct {
	reply  string
	err    error
	prompt []llm.Message
}

func (f *fakeCompletion) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	f.prompt = msgs
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type captureAudit struct {
	events []events.AuditEvent
}

func (c *captureAudit) PublishAudit(e events.AuditEvent) {
	c.events = append(c.events, e)
}

func newTestService(t *testing.T, hist *fakeHistory, completion llm.Provider, limitMax int, enableTone bool) (*Service, *captureAudit) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	opts := defaultOptions()
	opts.EnableSearch = false
	assembler := NewAssembler(hist, newFakeProfile(), nil, nil, opts)

	limiter := quota.NewRateLimiter(rdb, limitMax, time.Minute)
	audit := &captureAudit{}
	return NewService(assembler, completion, hist, limiter, audit, enableTone), audit
}

func TestRespond_PersistsUserThenRawReply(t *testing.T) {
	hist := &fakeHistory{}
	completion := &fakeCompletion{reply: "Of course, happy to help."}
	svc, audit := newTestService(t, hist, completion, 20, true)

	visible, err := svc.Respond(context.Background(), "u1", "I feel so happy today")
	require.NoError(t, err)

	// Tone decoration applies to the visible reply only.
	assert.Equal(t, "😊 Of course, happy to help. Yay!", visible)

	require.Len(t, hist.msgs, 2)
	assert.Equal(t, history.SenderUser, hist.msgs[0].Sender)
	assert.Equal(t, "I feel so happy today", hist.msgs[0].Text)
	assert.Equal(t, history.SenderBot, hist.msgs[1].Sender)
	assert.Equal(t, "Of course, happy to help.", hist.msgs[1].Text)
	assert.True(t, hist.msgs[1].Timestamp.After(hist.msgs[0].Timestamp))

	require.Len(t, audit.events, 1)
	assert.Equal(t, events.EventTurnCompleted, audit.events[0].EventType)
}

func TestRespond_ToneDisabled(t *testing.T) {
	hist := &fakeHistory{}
	completion := &fakeCompletion{reply: "Sure."}
	svc, _ := newTestService(t, hist, completion, 20, false)

	visible, err := svc.Respond(context.Background(), "u1", "I feel so happy today")
	require.NoError(t, err)
	assert.Equal(t, "Sure.", visible)
}

func TestRespond_NeutralMessageUndecorated(t *testing.T) {
	hist := &fakeHistory{}
	completion := &fakeCompletion{reply: "The capital is Paris."}
	svc, _ := newTestService(t, hist, completion, 20, true)

	visible, err := svc.Respond(context.Background(), "u1", "capital of France")
	require.NoError(t, err)
	assert.Equal(t, "The capital is Paris.", visible)
}

func TestRespond_RateLimited(t *testing.T) {
	hist := &fakeHistory{}
	completion := &fakeCompletion{reply: "ok"}
	svc, audit := newTestService(t, hist, completion, 1, false)
	ctx := context.Background()

	_, err := svc.Respond(ctx, "u1", "first")
	require.NoError(t, err)

	_, err = svc.Respond(ctx, "u1", "second")
	require.ErrorIs(t, err, api.ErrRateLimited)

	// The rejected turn leaves no trace in the transcript.
	require.Len(t, hist.msgs, 2)

	var rejections []events.AuditEvent
	for _, e := range audit.events {
		if e.EventType == events.EventRateLimited {
			rejections = append(rejections, e)
		}
	}
	require.Len(t, rejections, 1)
	assert.Equal(t, "u1", rejections[0].UserID)
}

func TestRespond_CompletionFailureFatal(t *testing.T) {
	hist := &fakeHistory{}
	completion := &fakeCompletion{err: errors.New("upstream 503")}
	svc, _ := newTestService(t, hist, completion, 20, true)

	_, err := svc.Respond(context.Background(), "u1", "hello")
	require.Error(t, err)

	// No reply means nothing persisted, not even the user message.
	assert.Empty(t, hist.msgs)
}

func TestRespond_PromptReachesCompletion(t *testing.T) {
	hist := &fakeHistory{}
	completion := &fakeCompletion{reply: "hi"}
	svc, _ := newTestService(t, hist, completion, 20, false)

	_, err := svc.Respond(context.Background(), "u1", "hello")
	require.NoError(t, err)

	require.NotEmpty(t, completion.prompt)
	assert.Equal(t, llm.RoleSystem, completion.prompt[0].Role)
	assert.Equal(t, Persona, completion.prompt[0].Content)
	assert.Equal(t, "hello", completion.prompt[len(completion.prompt)-1].Content)
}

func TestHistory_Passthrough(t *testing.T) {
	hist := &fakeHistory{}
	ctx := context.Background()
	require.NoError(t, hist.Append(ctx, "u1", history.SenderUser, "hi", time.Now()))

	svc, _ := newTestService(t, hist, &fakeCompletion{reply: "x"}, 20, false)

	msgs, err := svc.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
}
