package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/metric"

	"capboard/internal/config"
	"capboard/internal/datasource"
	apierrors "capboard/internal/errors"
	"capboard/internal/infrastructure"
	customMiddleware "capboard/internal/middleware"
	"capboard/internal/services"
	handlers "capboard/internal/transport/http"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.AnalyticsMetrics
	Dashboard     *services.DashboardService
	Health        *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler

	runtimeMetrics metric.Registration
}

// NewApplication loads the configuration at configPath (defaults and
// environment only when empty), initializes the global logger and builds
// the application.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("config", configPath),
		slog.String("source", cfg.Data.Source))

	return New(cfg, logger)
}

// New wires an application from an already validated configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateAnalyticsMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	runtimeMetrics, err := infrastructure.RegisterRuntimeMetrics(otelProviders.Meter, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to register runtime metrics: %w", err)
	}

	app := &Application{
		Config:         cfg,
		Logger:         logger,
		OTelProviders:  otelProviders,
		Metrics:        metrics,
		ErrorHandler:   apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		runtimeMetrics: runtimeMetrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices creates the price source and the services over it
func (a *Application) initializeServices() error {
	universe, err := datasource.UniverseFor(a.Config.Data)
	if err != nil {
		return err
	}

	source, err := datasource.New(a.Config.Data, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create price source: %w", err)
	}

	a.Dashboard, err = services.NewDashboardService(source, universe, a.Config.Metrics, a.Logger,
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithMetrics(a.Metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to create dashboard service: %w", err)
	}

	a.Health = services.NewHealthService(config.AppVersion, a.Dashboard, a.Logger)

	a.Logger.Info("Services initialized",
		slog.String("source", source.Name()),
		slog.String("provenance", string(source.Provenance())),
		slog.Int("universe", len(universe)))
	return nil
}

// setupRouter applies middleware in order RequestID → RealIP → OTel →
// Logger → Recoverer → SecurityHeaders → RateLimiter and mounts the routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		otelMiddleware := customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger)
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrape stays outside the group so scrapes are not traced or rate limited
	r.Handle("/metrics", handlers.NewMetricsHandler(a.prometheusHandler(), a.ErrorHandler))

	a.Router = r
}

func (a *Application) prometheusHandler() http.Handler {
	if a.OTelProviders == nil || a.OTelProviders.PrometheusHTTP == nil {
		return nil
	}
	return a.OTelProviders.PrometheusHTTP
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		marketHandler := handlers.NewMarketHandler(a.Dashboard, customMiddleware.NewValidator(), a.Logger, a.ErrorHandler)
		r.Mount("/market", marketHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server in the background. A listen failure is
// logged and cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.runtimeMetrics != nil {
		_ = a.runtimeMetrics.Unregister()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.ErrorContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck loads the dataset once so a missing fixture
// directory or an empty universe shows up in the startup log
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	loaded, skipped, err := a.Dashboard.CheckDataset(ctx)
	if err != nil {
		return fmt.Errorf("price source %s: %w", a.Dashboard.SourceName(), err)
	}
	if loaded == 0 {
		return fmt.Errorf("price source %s returned no usable entities (%d skipped)", a.Dashboard.SourceName(), skipped)
	}

	a.Logger.InfoContext(ctx, "Startup health check passed",
		slog.String("source", a.Dashboard.SourceName()),
		slog.String("provenance", string(a.Dashboard.Provenance())),
		slog.Int("loaded", loaded),
		slog.Int("skipped", skipped))
	return nil
}
