package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/felix-chat/felix/internal/api"
	"github.com/felix-chat/felix/internal/history"
)

// Handler exposes the chat pipeline over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// Chat handles POST /api/v1/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError("message and uid are required"))
		return
	}

	reply, err := h.svc.Respond(r.Context(), req.UID, req.Message)
	if err != nil {
		slog.Error("chat turn failed", "error", err, "uid", req.UID)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, Response{Response: reply})
}

// History handles GET /api/v1/history?uid=&limit=.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		api.HandleError(w, api.NewValidationError("uid is required"))
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}

	msgs, err := h.svc.History(r.Context(), uid, limit)
	if err != nil {
		slog.Error("listing history", "error", err, "uid", uid)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if msgs == nil {
		msgs = []history.Message{}
	}

	api.JSON(w, http.StatusOK, msgs)
}
