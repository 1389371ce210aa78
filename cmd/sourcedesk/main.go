package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sourcedesk/sourcedesk/internal/app"
	"github.com/sourcedesk/sourcedesk/internal/audit"
	"github.com/sourcedesk/sourcedesk/internal/auth"
	"github.com/sourcedesk/sourcedesk/internal/authz"
	"github.com/sourcedesk/sourcedesk/internal/docstore"
	"github.com/sourcedesk/sourcedesk/internal/observability"
	"github.com/sourcedesk/sourcedesk/internal/platform/cache"
	"github.com/sourcedesk/sourcedesk/internal/platform/db"
	"github.com/sourcedesk/sourcedesk/internal/po"
	"github.com/sourcedesk/sourcedesk/internal/quotation"
	"github.com/sourcedesk/sourcedesk/internal/rfp"
	"github.com/sourcedesk/sourcedesk/internal/sequence"
	"github.com/sourcedesk/sourcedesk/internal/shared"
	"github.com/sourcedesk/sourcedesk/internal/users"
	"github.com/sourcedesk/sourcedesk/internal/vendor"
	"github.com/sourcedesk/sourcedesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "sourcedesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	authzMiddleware := authz.Middleware{
		Policy:   authz.DefaultPolicy(),
		Resolver: authService,
		Logger:   logger,
	}

	auditRepo := audit.NewRepository(pool)
	auditRecorder := audit.NewRecorder(auditRepo)
	auditHandler := audit.NewHandler(logger, auditRecorder, authzMiddleware)

	sequences := sequence.NewGenerator(pool)
	store := docstore.New(cfg.AssetRoot, cfg.StagingRoot)

	summaryCache := rfp.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	rfpRepo := rfp.NewRepository(pool)
	rfpService := rfp.NewService(rfpRepo, auditRecorder, summaryCache)
	rfpHandler := rfp.NewHandler(logger, rfpService, sequences, authzMiddleware)

	quotationRepo := quotation.NewRepository(pool)
	quotationService := quotation.NewService(quotationRepo, quotation.NewDocumentStore(store), auditRecorder, summaryCache)
	quotationHandler := quotation.NewHandler(logger, quotationService, authzMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewVendorNotifier(jobClient, pool)

	poRepo := po.NewRepository(pool)
	poService := po.NewService(poRepo, auditRecorder, notifier, summaryCache)
	poHandler := po.NewHandler(logger, poService, sequences, authzMiddleware)

	vendorRepo := vendor.NewRepository(pool)
	vendorService := vendor.NewService(vendorRepo, auditRecorder)
	vendorHandler := vendor.NewHandler(logger, vendorService, authzMiddleware)

	usersRepo := users.NewRepository(pool)
	usersHandler := users.NewHandler(logger, usersRepo, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthHandler:    authHandler,
		RFPHandler:     rfpHandler,
		Quotations:     quotationHandler,
		POHandler:      poHandler,
		VendorHandler:  vendorHandler,
		AuditHandler:   auditHandler,
		UsersHandler:   usersHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
