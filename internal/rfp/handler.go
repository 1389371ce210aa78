package rfp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/authz"
	"github.com/sourcedesk/sourcedesk/internal/platform/httpx"
	"github.com/sourcedesk/sourcedesk/internal/sequence"
)

// Handler manages RFP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sequences *sequence.Generator
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sequences *sequence.Generator, mw authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sequences: sequences,
		authz:     mw,
		validator: validator.New(),
	}
}

// MountRoutes registers RFP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.OpRFPView))
		r.Get("/", h.handleList)
		r.Get("/summary", h.handleSummary)
		r.Get("/summary/export", h.handleSummaryExport)
		r.Get("/rfpid", h.handleNextID)
		r.Get("/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.OpRFPCreate))
		r.Post("/", h.handleCreate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireResource(authz.OpRFPUpdate))
		r.Put("/{id}", h.handleUpdate)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRFPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if fields := h.validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}
	resp, err := h.service.Create(r.Context(), req, currentActor(r))
	if err != nil {
		h.respondError(w, "create rfp", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed rfp id")
		return
	}
	var req UpdateRFPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if fields := h.validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}
	resp, err := h.service.Update(r.Context(), id, req, currentActor(r))
	if err != nil {
		h.respondError(w, "update rfp", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed rfp id")
		return
	}
	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get rfp", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	docs, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.respondError(w, "list rfps", err)
		return
	}
	out := make([]RFPResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, NewRFPResponse(doc, nil, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rfps": out})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Summary(r.Context())
	if err != nil {
		h.respondError(w, "rfp summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summary": rows})
}

func (h *Handler) handleSummaryExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Summary(r.Context())
	if err != nil {
		h.respondError(w, "rfp summary export", err)
		return
	}
	data, err := SummaryCSV(rows)
	if err != nil {
		h.respondError(w, "rfp summary export", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="rfp-summary.csv"`)
	_, _ = w.Write(data)
}

// handleNextID previews the identifier the next creation would receive.
// The reservation itself happens inside the create transaction.
func (h *Handler) handleNextID(w http.ResponseWriter, r *http.Request) {
	id, err := h.sequences.Peek(r.Context(), sequence.KindRFP, time.Now())
	if err != nil {
		h.respondError(w, "peek rfp id", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"rfpId": id})
}

func (h *Handler) validate(payload any) map[string]string {
	err := h.validator.Struct(payload)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fieldErr := range verrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
	} else {
		fields["payload"] = err.Error()
	}
	return fields
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "rfp not found")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func currentActor(r *http.Request) audit.Actor {
	identity, _ := authz.IdentityFromContext(r.Context())
	return audit.Actor{ID: identity.ID, Name: identity.Name, Role: string(identity.Role)}
}
