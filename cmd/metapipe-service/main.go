// metapipe-service is the HTTP API server for launching and tracking
// metagenomics pipeline runs on single-use cloud instances.
package main

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

	"metapipe/internal/api"
	"metapipe/internal/config"
	"metapipe/internal/gateway"
	"metapipe/internal/gateway/dockerlocal"
	"metapipe/internal/gateway/gce"
	"metapipe/internal/gateway/gcs"
	"metapipe/internal/health"
	"metapipe/internal/job"
	"metapipe/internal/notify"
	"metapipe/internal/observability"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	svcCfg := config.LoadServiceConfig()
	cloudCfg := config.LoadCloudConfig()
	notifierCfg := notify.LoadConfigFromEnv()

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Create the compute backend
	compute, err := newCompute(ctx, cloudCfg)
	if err != nil {
		return err
	}
	defer compute.Close()

	// Create the storage backend
	storage, err := gcs.New(ctx, cloudCfg.Bucket, cloudCfg.CredentialsKey)
	if err != nil {
		return err
	}
	defer storage.Close()

	slog.Info("Connected to cloud backends",
		"compute", cloudCfg.ComputeBackend,
		"bucket", cloudCfg.Bucket,
		"zone", cloudCfg.Zone,
	)

	// Create callback notifier
	notifier := notify.NewMemory(notifierCfg, metrics)

	// Wire up the job service
	registry := job.NewRegistry()
	estimator := job.NewEstimator(cloudCfg.HourlyRates)
	jobService := job.NewService(
		job.NewOrchestrator(compute, cloudCfg, registry),
		job.NewTracker(compute, storage, estimator),
		job.NewResultCatalog(storage, cloudCfg.SignedURLExpiry),
		registry,
		estimator,
		notifier,
		metrics,
	)

	// Create health checker
	healthChecker := health.NewChecker(compute, storage)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		JobService:    jobService,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		APIKey:        svcCfg.APIKey,
	})

	if svcCfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY_FILE configured")
	}

	// Create API server
	apiServer := &http.Server{
		Addr:         ":" + svcCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	// Start API server
	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start metrics server
	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy for load balancer draining
	healthChecker.SetShuttingDown()

	// Wait for load balancers to stop sending traffic
	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Phase 2: Graceful shutdown - stop accepting new connections, finish in-flight requests
	slog.Info("Starting graceful shutdown")
	shutdown(25 * time.Second)

	// Phase 3: Drain pending callback deliveries
	slog.Info("Draining callback notifier")
	notifierCtx, notifierCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer notifierCancel()
	if err := notifier.Close(notifierCtx); err != nil {
		slog.Warn("Notifier shutdown error", "error", err)
	}

	// Log final notifier stats
	stats := notifier.Stats()
	slog.Info("Notifier stats",
		"delivered", stats.Delivered,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
	)

	// Launched instances keep running: each one executes its pipeline,
	// uploads results, and deletes itself regardless of this service.
	slog.Info("Running pipeline instances will continue independently")
	slog.Info("Shutdown complete")
	return nil
}

// newCompute picks the compute backend. GCE is the production target;
// the docker backend runs startup scripts in local containers for dev.
func newCompute(ctx context.Context, cfg *config.CloudConfig) (gateway.Compute, error) {
	switch cfg.ComputeBackend {
	case "gce", "":
		return gce.New(ctx, gce.Config{
			ProjectID:   cfg.ProjectID,
			Zone:        cfg.Zone,
			SourceImage: cfg.SourceImage,
			Network:     cfg.Network,
			KeyFile:     cfg.CredentialsKey,
		})
	case "docker":
		return dockerlocal.New("")
	default:
		return nil, fmt.Errorf("unknown compute backend %q", cfg.ComputeBackend)
	}
}
