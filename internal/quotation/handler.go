package quotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/authz"
	"github.com/sourcedesk/sourcedesk/internal/platform/httpx"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
)

// maxSubmissionBytes bounds the whole multipart submission.
const maxSubmissionBytes = 64 << 20

// Handler manages quotation intake endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		authz:     mw,
		validator: validator.New(),
	}
}

// MountRoutes registers quotation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(authz.OpQuotationSubmit))
		r.Put("/", h.handleSubmit)
	})
}

// handleSubmit accepts a multipart form: the `data` field carries the JSON
// payload, and each declared document arrives as the file field
// "{vendorId}-{documentName}".
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	rfpID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed rfp id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed multipart body")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var req SubmitRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed data field")
		return
	}
	if fields := h.validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}

	files := make(map[string]io.Reader)
	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, input := range req.Quotations {
		for _, doc := range input.Documents {
			key := fmt.Sprintf("%s-%s", input.VendorID, doc.DocumentName)
			file, _, err := r.FormFile(key)
			if err != nil {
				continue
			}
			opened = append(opened, file)
			files[key] = file
		}
	}

	resp, err := h.service.Submit(r.Context(), rfpID, req, files, currentActor(r))
	if err != nil {
		h.respondError(w, "submit quotations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
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
	case errors.Is(err, ErrMalformedID), errors.Is(err, ErrValidation), errors.Is(err, rfp.ErrInvalidStatus):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrRFPNotOpen):
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
