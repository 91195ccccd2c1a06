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

	"kbpulse/internal/config"
	apierrors "kbpulse/internal/errors"
	"kbpulse/internal/infrastructure"
	customMiddleware "kbpulse/internal/middleware"
	"kbpulse/internal/news"
	"kbpulse/internal/operations"
	"kbpulse/internal/services"
	"kbpulse/internal/source"
	"kbpulse/internal/taxonomy"
	handlers "kbpulse/internal/transport/http"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Pipeline      *operations.Pipeline
	DataService   *services.DataService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler

	source source.Source
}

// Option customizes an Application before its services are built
type Option func(*Application)

// WithSource replaces the HTTP workbook fetcher
func WithSource(src source.Source) Option {
	return func(a *Application) {
		a.source = src
	}
}

// NewApplication wires every service for the dashboard server
func NewApplication(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}
	if cfg.Telemetry.MetricsEnabled {
		app.Metrics = infrastructure.NewPipelineMetrics()
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// NewPipeline builds the workbook pipeline from configuration. The CLI
// commands share it with the server.
func NewPipeline(cfg *config.Config, src source.Source, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *operations.Pipeline {
	if src == nil {
		src = NewSource(cfg.Source, logger)
	}
	return operations.NewPipeline(cfg.Workbook, src, logger,
		operations.WithMetrics(metrics),
		operations.WithTracer(operations.NewPipelineTracer()),
	)
}

// NewSource returns the HTTP fetcher, with a headless browser harvesting
// session cookies first when browser warmup is enabled
func NewSource(cfg config.SourceConfig, logger *slog.Logger) *source.Fetcher {
	var opts []source.Option
	if cfg.BrowserWarmup {
		pageURL := cfg.Referer
		if pageURL == "" {
			pageURL = cfg.URL
		}
		opts = append(opts, source.WithCookieWarmer(source.NewBrowserWarmer(pageURL, cfg.Timeout, logger)))
	}
	return source.NewFetcher(cfg, logger, opts...)
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	tax, err := taxonomy.Load(a.Config.Workbook.TaxonomyFile)
	if err != nil {
		return fmt.Errorf("failed to load taxonomy: %w", err)
	}
	classifier, err := taxonomy.NewClassifier(tax)
	if err != nil {
		return fmt.Errorf("failed to build classifier: %w", err)
	}

	a.Pipeline = NewPipeline(a.Config, a.source, a.Metrics, a.Logger)

	var searcher news.Searcher
	if a.Config.News.Endpoint != "" {
		searcher = news.NewClient(a.Config.News, nil, a.Logger)
	}

	a.DataService = services.NewDataService(services.DataServiceConfig{
		PrimaryCategory:   a.Config.Workbook.PrimaryCategory,
		SecondaryCategory: a.Config.Workbook.SecondaryCategory,
		RefreshInterval:   a.Config.Server.RefreshInterval,
	}, a.Pipeline, classifier, searcher, a.Logger)

	// A snapshot that missed two refresh windows is degraded
	a.HealthService = services.NewHealthService(config.AppVersion, a.DataService,
		2*a.Config.Server.RefreshInterval, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes.
// Middleware order: RequestID → Observability → Logger → Recoverer → headers.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.NewObservability(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
	}))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	if a.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.Metrics))
	}

	a.setupAPIRoutes(r)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)

		dataHandler := handlers.NewDataHandler(a.DataService, customMiddleware.NewValidator(), a.Logger, a.ErrorHandler)
		dataHandler.RegisterRoutes(r)

		// Manual refresh runs the whole pipeline, so it is keyed and throttled
		var keys map[string]string
		if a.Config.Server.APIKey != "" {
			keys = map[string]string{a.Config.Server.APIKey: "operator"}
		}
		limiter := customMiddleware.NewRateLimiter(a.Config.Server.RefreshRPS, 1, a.Logger)
		refreshHandler := handlers.NewRefreshHandler(a.DataService, a.Logger, a.ErrorHandler)
		r.With(customMiddleware.APIKeyAuth(a.Logger, keys), limiter.Handler).
			Post("/refresh", refreshHandler.Refresh)
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server and primes the first snapshot in the
// background. A listen failure calls cancel.
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

	go a.prime(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// prime loads the first snapshot so the first dashboard request is fast
func (a *Application) prime(ctx context.Context) {
	if _, err := a.DataService.Snapshot(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Initial snapshot failed, will retry on demand",
			slog.String("error", err.Error()),
			slog.String("kind", string(apierrors.KindOf(err))))
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

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or until ctx ends
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	// The run context may already be cancelled; shutdown gets its own
	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
