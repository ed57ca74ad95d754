package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felix-chat/felix/internal/api"
)

// Handler exposes the audit trail over HTTP.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/v1/audit?uid=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		api.HandleError(w, api.NewValidationError("uid is required"))
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}

	logs, err := h.repo.ListByUser(r.Context(), uid, limit)
	if err != nil {
		slog.Error("listing audit logs", "error", err, "uid", uid)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if logs == nil {
		logs = []Log{}
	}

	api.JSON(w, http.StatusOK, logs)
}
