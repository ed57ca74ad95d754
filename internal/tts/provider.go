package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felix-chat/felix/internal/config"
	"github.com/felix-chat/felix/internal/util"
)

// Provider synthesizes speech audio from text. May fail; callers surface
// the failure since there is no substitute for audio.
type Provider interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabsProvider calls the ElevenLabs text-to-speech REST API and
// returns MP3 bytes.
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	voiceID    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

func NewElevenLabsProvider(cfg config.TTSConfig) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		voiceID:    cfg.VoiceID,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

type synthesisRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings map[string]any `json:"voice_settings,omitempty"`
}

func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := util.Backoff(p.retryDelay, attempt)
			slog.Debug("retrying speech synthesis", "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		audio, err := p.synthesizeOnce(ctx, text)
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		return audio, nil
	}
	return nil, fmt.Errorf("speech synthesis failed after %d attempts: %w", p.maxRetries, lastErr)
}

func (p *ElevenLabsProvider) synthesizeOnce(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", p.baseURL, p.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building synthesis request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling synthesis provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis provider returned %d: %s", resp.StatusCode, payload)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis provider returned empty audio")
	}
	return audio, nil
}
