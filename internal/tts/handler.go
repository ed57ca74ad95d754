package tts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/felix-chat/felix/internal/api"
	"github.com/felix-chat/felix/internal/events"
	"github.com/felix-chat/felix/internal/metrics"
	"github.com/felix-chat/felix/internal/quota"
)

// SynthesizeRequest is the /api/v1/tts request body.
type SynthesizeRequest struct {
	Text string `json:"text" validate:"required,min=1"`
	UID  string `json:"uid" validate:"required,min=1"`
}

// SynthesizeResponse points the caller at the transient audio resource.
type SynthesizeResponse struct {
	URL string `json:"url"`
}

// Handler exposes speech synthesis over HTTP.
type Handler struct {
	provider Provider
	tracker  *quota.TTSTracker
	files    *FileStore
	audit    events.AuditPublisher
	validate *validator.Validate
}

func NewHandler(provider Provider, tracker *quota.TTSTracker, files *FileStore, audit events.AuditPublisher) *Handler {
	if audit == nil {
		audit = events.NopPublisher{}
	}
	return &Handler{
		provider: provider,
		tracker:  tracker,
		files:    files,
		audit:    audit,
		validate: validator.New(),
	}
}

// Synthesize checks the daily character quota, calls the synthesis
// provider, records usage on success, and returns a one-shot audio URL.
func (h *Handler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError("text and uid are required"))
		return
	}

	// The daily cap is in characters, not bytes; multibyte text must not
	// be over-charged.
	chars := utf8.RuneCountInString(req.Text)
	exceeded, err := h.tracker.Check(r.Context(), req.UID, chars)
	if err != nil {
		slog.Error("checking tts quota", "error", err, "uid", req.UID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if exceeded {
		metrics.TTSSynthesisTotal.WithLabelValues("quota_exceeded").Inc()
		h.audit.PublishAudit(events.AuditEvent{
			UserID:    req.UID,
			EventType: events.EventTTSQuotaExceeded,
			Severity:  "warn",
			Details:   fmt.Sprintf("requested %d chars over the daily cap", chars),
		})
		api.HandleError(w, api.ErrTTSQuota)
		return
	}

	audio, err := h.provider.Synthesize(r.Context(), req.Text)
	if err != nil {
		slog.Error("speech synthesis failed", "error", err, "uid", req.UID)
		metrics.TTSSynthesisTotal.WithLabelValues("error").Inc()
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	// Usage is recorded only after a successful synthesis.
	if err := h.tracker.Add(r.Context(), req.UID, chars); err != nil {
		slog.Error("recording tts usage", "error", err, "uid", req.UID)
	}

	name, err := h.files.Put(audio)
	if err != nil {
		slog.Error("storing audio file", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	metrics.TTSSynthesisTotal.WithLabelValues("ok").Inc()
	h.audit.PublishAudit(events.AuditEvent{
		UserID:    req.UID,
		EventType: events.EventTTSSynthesized,
		Severity:  "info",
		Details:   fmt.Sprintf("synthesized %d chars, %d audio bytes", chars, len(audio)),
	})
	api.JSON(w, http.StatusOK, SynthesizeResponse{URL: "/api/v1/audio/" + name})
}

// StreamAudio serves a transient audio file and deletes it afterwards.
func (h *Handler) StreamAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, err := h.files.Open(name)
	if err != nil {
		api.HandleError(w, api.NewNotFoundError("audio not found"))
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)

	if err := h.files.Remove(name); err != nil {
		slog.Warn("removing streamed audio file", "error", err, "name", name)
	}
}
