// Package app wires the application together: configuration, logging,
// telemetry, the job queue, services, and the HTTP router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"studycoach/internal/advice"
	"studycoach/internal/config"
	apierrors "studycoach/internal/errors"
	"studycoach/internal/files"
	"studycoach/internal/infrastructure"
	"studycoach/internal/jobs"
	customMiddleware "studycoach/internal/middleware"
	"studycoach/internal/services"
	handlers "studycoach/internal/transport/http"
	"studycoach/pkg/contracts"
)

const AppName = "StudyCoach - Class Study Advice Generator"

// Housekeeping cadence: finished jobs and consumed uploads are kept for
// a day so results stay queryable, then swept.
const (
	maintenanceInterval = time.Hour
	jobRetention        = 24 * time.Hour
	uploadRetention     = 24 * time.Hour
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	JobQueue      *jobs.JobQueue
	ReportService *services.ReportService
	HealthService *services.HealthService
	FileManager   *files.Manager

	queueCancel context.CancelFunc
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	var metrics *infrastructure.BatchMetrics
	if otelProviders.Meter != nil {
		metrics, err = infrastructure.CreateBatchMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create batch metrics: %w", err)
		}
	}

	adviceClient, err := advice.NewClient(context.Background(), cfg.Advice)
	if err != nil {
		return nil, fmt.Errorf("failed to create advice client: %w", err)
	}

	reportService, err := services.NewReportServiceWithLogger(cfg, adviceClient, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report service: %w", err)
	}

	jobQueue := jobs.NewJobQueue(cfg.Jobs.Workers, jobs.NewMemoryJobStore(), reportService, logger)
	jobQueue.SetBatchTimeout(cfg.Jobs.BatchTimeout)
	healthService := services.NewHealthService(paths, jobQueue, logger)

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		JobQueue:      jobQueue,
		ReportService: reportService,
		HealthService: healthService,
		FileManager:   files.NewManager(paths, logger),
	}

	app.setupRouter()
	app.setupServer()

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Level == "debug")
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.RequestID)
		r.Use(customMiddleware.RealIP)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus metrics endpoint outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			jobsHandler := handlers.NewJobsHandler(a.JobQueue, a.Logger)
			r.Mount("/jobs", jobsHandler.Routes())

			reportHandler := handlers.NewReportHandler(a.JobQueue, a.Config, a.Paths, a.Logger)
			r.Mount("/reports", reportHandler.Routes())
		})
	})
}

// setupServer configures the HTTP server
func (a *Application) setupServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("executable_dir", a.Paths.ExecutableDir),
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("uploads_dir", a.Paths.UploadsDir),
		slog.String("reports_dir", a.Paths.ReportsDir),
		slog.String("logs_dir", a.Paths.LogsDir))

	// Worker pool lifetime is tied to the application, not the request
	// that enqueued the job.
	queueCtx, queueCancel := context.WithCancel(context.Background())
	a.queueCancel = queueCancel
	a.JobQueue.Start(queueCtx)

	go a.maintenanceLoop(queueCtx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// maintenanceLoop periodically expires finished jobs and sweeps stale
// uploads until the queue context is cancelled.
func (a *Application) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := a.JobQueue.CleanupOldJobs(jobRetention); err != nil {
				a.Logger.Warn("job cleanup failed", slog.String("error", err.Error()))
			} else if removed > 0 {
				a.Logger.Info("old jobs removed", slog.Int("count", removed))
			}

			if _, err := a.FileManager.CleanupUploads(uploadRetention); err != nil {
				a.Logger.Warn("upload cleanup failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.JobQueue != nil {
		a.Logger.InfoContext(ctx, "Stopping job queue")
		if err := a.JobQueue.Stop(30 * time.Second); err != nil {
			a.Logger.ErrorContext(ctx, "Failed to stop job queue gracefully", slog.String("error", err.Error()))
		}
	}
	if a.queueCancel != nil {
		a.queueCancel()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Start failure triggered shutdown")
	}

	return a.Stop(context.Background())
}
