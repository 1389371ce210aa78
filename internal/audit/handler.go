package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sourcedesk/sourcedesk/internal/authz"
	"github.com/sourcedesk/sourcedesk/internal/platform/httpx"
)

// Handler exposes the audit timeline read surface.
type Handler struct {
	logger   *slog.Logger
	recorder *Recorder
	authz    authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, recorder *Recorder, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, recorder: recorder, authz: mw}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.OpAuditView))
		r.Get("/", h.handleTimeline)
	})
}

type trailResponse struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	UserID    int64          `json:"userId"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	trails, err := h.recorder.Timeline(r.Context(), TrailFilters{
		EventName: r.URL.Query().Get("event"),
		UserID:    userID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]trailResponse, 0, len(trails))
	for _, t := range trails {
		out = append(out, trailResponse{
			ID:        t.ID,
			Event:     t.EventName,
			UserID:    t.UserID,
			Details:   t.Details,
			CreatedAt: t.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"trails": out})
}
