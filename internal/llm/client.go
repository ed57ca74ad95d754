package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/felix-chat/felix/internal/config"
	"github.com/felix-chat/felix/internal/metrics"
	"github.com/felix-chat/felix/internal/util"
)

// Provider produces a completion for an ordered message sequence.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat-completion endpoint.
// With BaseURL pointed at api.together.xyz it drives Together models
// without code changes.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

func NewOpenAIClient(cfg config.CompletionConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Second,
	}
}

// Complete submits the sequence and returns the raw reply text. Transient
// failures are retried with exponential backoff; each attempt is bounded
// by its own timeout so a stalled provider cannot hang the request.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	chatMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMsgs[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := util.Backoff(c.retryDelay, attempt)
			slog.Debug("retrying completion", "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		resp, err := c.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: chatMsgs,
		})
		metrics.CompletionRequestDuration.Observe(time.Since(start).Seconds())
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: completion returned no choices", attempt+1)
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries, lastErr)
}
