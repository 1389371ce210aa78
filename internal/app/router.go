package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/auth"
	"github.com/sourcedesk/sourcedesk/internal/observability"
	"github.com/sourcedesk/sourcedesk/internal/po"
	"github.com/sourcedesk/sourcedesk/internal/quotation"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
	"github.com/sourcedesk/sourcedesk/internal/shared"
	"github.com/sourcedesk/sourcedesk/internal/users"
	"github.com/sourcedesk/sourcedesk/internal/vendor"
	"github.com/sourcedesk/sourcedesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	AuthHandler    *auth.Handler
	RFPHandler     *rfp.Handler
	Quotations     *quotation.Handler
	POHandler      *po.Handler
	VendorHandler  *vendor.Handler
	AuditHandler   *audit.Handler
	UsersHandler   *users.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/rfp/quotation", params.Quotations.MountRoutes)
	r.Route("/rfp", params.RFPHandler.MountRoutes)
	r.Route("/po", params.POHandler.MountRoutes)
	r.Route("/vendor", params.VendorHandler.MountRoutes)
	r.Route("/audit", params.AuditHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
