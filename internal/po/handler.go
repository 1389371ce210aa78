package po

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

// Handler manages purchase-order endpoints.
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

// MountRoutes registers purchase-order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.OpPOView))
		r.Get("/", h.handleList)
		r.Get("/poid", h.handleNextID)
		r.Get("/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.OpPOCreate))
		r.Post("/", h.handleCreate)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePORequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		} else {
			fields["payload"] = err.Error()
		}
		httpx.ValidationProblem(w, fields)
		return
	}
	resp, err := h.service.Create(r.Context(), req, currentActor(r))
	if err != nil {
		h.respondError(w, "create po", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed po id")
		return
	}
	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get po", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	orders, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.respondError(w, "list pos", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchaseOrders": orders})
}

// handleNextID previews the identifier the next issue would receive.
func (h *Handler) handleNextID(w http.ResponseWriter, r *http.Request) {
	id, err := h.sequences.Peek(r.Context(), sequence.KindPO, time.Now())
	if err != nil {
		h.respondError(w, "peek po id", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"poId": id})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "not found")
	case errors.Is(err, ErrQuotationMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAlreadyIssued), errors.Is(err, ErrRFPNotReady):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func currentActor(r *http.Request) audit.Actor {
	identity, _ := authz.IdentityFromContext(r.Context())
	return audit.Actor{ID: identity.ID, Name: identity.Name, Role: string(identity.Role)}
}
