package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mosaic/internal/core/services"
	httphandlers "mosaic/internal/handlers/http"
	"mosaic/internal/infrastructure/middleware"
	"mosaic/internal/infrastructure/monitoring"
	"mosaic/internal/infrastructure/playback"
	"mosaic/internal/infrastructure/repositories"
	wsignal "mosaic/internal/infrastructure/signal"
	"mosaic/pkg/circuitbreaker"
	"mosaic/pkg/config"
	"mosaic/pkg/logger"
	"mosaic/pkg/retry"
	"mosaic/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/mosaic/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "mosaic",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		zapLogger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector()

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to create repository factory", zap.Error(err))
	}
	defer repoFactory.Close()

	slotRepo := repoFactory.CreateSlotRepository()
	gridRepo := repoFactory.CreateGridConfigRepository()
	snapshotStore := collector.InstrumentSnapshotStore(repoFactory.CreateSnapshotStore())

	// Persistence with retry and snapshot fallback. Degraded transitions
	// feed the health endpoint and the metrics gauge.
	persistence := services.NewPersistenceService(
		slotRepo,
		gridRepo,
		snapshotStore,
		retry.Config{
			Enabled:      cfg.Store.Retry.MaxAttempts > 0,
			MaxAttempts:  cfg.Store.Retry.MaxAttempts,
			InitialDelay: cfg.Store.Retry.InitialDelay,
			MaxDelay:     cfg.Store.Retry.MaxDelay,
			Multiplier:   2.0,
			Jitter:       true,
		},
		cfg.Grid.DefaultSize,
		zapLogger,
		collector.SetStorageDegraded,
	)

	// Slot registry
	registry := services.NewRegistryService(persistence, zapLogger)

	hydrateCtx, hydrateCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := registry.Hydrate(hydrateCtx); err != nil {
		zapLogger.Warn("failed to hydrate slot registry, starting empty", zap.Error(err))
	}
	hydrateCancel()
	collector.SetGridSize(registry.GridSize())

	// Playback engine
	loader := playback.NewHLSLoader(
		cfg.Playback.LoadTimeout,
		cfg.Playback.PlaylistCacheTTL,
		cfg.Playback.UserAgent,
		zapLogger,
	)
	controller := playback.NewController(loader, registry, zapLogger, collector)

	// Websocket hub; every state transition is pushed to dashboard clients
	hub := wsignal.NewHub(zapLogger)
	hub.OnClientCountChange(collector.SetWSClients)
	controller.OnStatusChange(hub.BroadcastSlotStatus)

	// Retry sweeper for errored slots
	sweeper := services.NewRetrySweeper(
		registry,
		controller,
		cfg.Sweep.Interval,
		cfg.Sweep.Breaker.Enabled,
		circuitbreaker.Config{
			FailureThreshold:    cfg.Sweep.Breaker.FailureThreshold,
			SuccessThreshold:    cfg.Sweep.Breaker.SuccessThreshold,
			Timeout:             cfg.Sweep.Breaker.Timeout,
			MaxRequestsHalfOpen: cfg.Sweep.Breaker.MaxRequestsHalfOpen,
		},
		zapLogger,
		collector,
	)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweeper.Run(sweepCtx)

	// Diagnostics result log
	diagnostics := services.NewDiagnosticsService(cfg.Diagnostics.MaxEntries)

	// Health checks
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("store", func(ctx context.Context) (bool, error) {
		return !persistence.Degraded(), nil
	}, 2*time.Second, true)

	// HTTP handlers
	slotHandler := httphandlers.NewSlotHandler(registry, controller, zapLogger)
	diagnosticsHandler := httphandlers.NewDiagnosticsHandler(diagnostics)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.ErrorHandlerMiddleware(zapLogger))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.SessionMiddleware(
		cfg.Session.CookieName,
		cfg.Session.Secret,
		cfg.Session.TTL,
	))

	slotHandler.SetupRoutes(router)
	diagnosticsHandler.SetupRoutes(router)

	// Websocket endpoint for live grid state
	router.GET("/ws", func(c *gin.Context) {
		hub.HandleWebSocket(c.Writer, c.Request)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		zapLogger.Info("prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("starting mosaic server", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		zapLogger.Fatal("server failed", zap.Error(err))
	case sig := <-sigChan:
		zapLogger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	zapLogger.Info("shutting down mosaic server")

	sweepCancel()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("error during server shutdown", zap.Error(err))
		if closeErr := srv.Close(); closeErr != nil {
			zapLogger.Error("error force closing server", zap.Error(closeErr))
		}
	}

	// Persist the final grid state and stop every session
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := registry.Save(saveCtx); err != nil {
		zapLogger.Error("error saving grid state on shutdown", zap.Error(err))
	}
	saveCancel()

	controller.DisposeAll()

	if err := tracerProvider.Shutdown(context.Background()); err != nil {
		zapLogger.Error("error shutting down tracer", zap.Error(err))
	}

	zapLogger.Info("mosaic server stopped")
}
