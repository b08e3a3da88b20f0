package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoapi/internal/adapter/http/routes"
	"todoapi/internal/adapter/telemetry"
	"todoapi/pkg/config"
)

// StartServer wires the application and serves HTTP until ctx is cancelled,
// then drains in-flight requests within the shutdown timeout.
func StartServer(ctx context.Context, cfg *config.Config, logger *config.LokiLogger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tel, err := telemetry.NewContainer(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		TracingEnabled: cfg.Telemetry.Enabled,
	}, logger.Zap())

	if err != nil {
		return err
	}

	probe := tel.NewTelemetryProbe()

	store, err := OpenStore(ctx, cfg, probe)

	if err != nil {
		return err
	}

	defer store.Close()

	verifier, provider := NewIdentity(cfg)
	container := NewContainer(store, verifier, provider, probe, logger, cfg.ServiceVersion)

	rateLimitStore, closeRateLimitStore, err := newRateLimitStore(cfg, logger)

	if err != nil {
		return err
	}

	defer closeRateLimitStore()

	router := routes.SetupRouter(routes.HandlersConfig{
		AuthHandler:   container.AuthHandler,
		TodoHandler:   container.TodoHandler,
		HealthHandler: container.HealthHandler,
	}, routes.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Verifier:    verifier,
		RateLimiter: config.NewRateLimiter(rateLimitStore, logger.Zap(), tel.AppMetrics, cfg.RateLimit),
		Metrics:     tel.AppMetrics,
		Registry:    tel.PrometheusRegistry,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info(ctx, "Server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Driver),
		zap.String("identity_provider", cfg.Identity.Provider),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Bool("https_enforced", cfg.HTTP.EnforceHTTPS))

	serveErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return tel.Shutdown(shutdownCtx)
}

// newRateLimitStore shares counters through Redis when REDIS_URL is set.
func newRateLimitStore(cfg *config.Config, logger *config.LokiLogger) (config.RateLimitStore, func(), error) {
	if cfg.RateLimit.RedisURL == "" {
		return config.NewMemoryStore(), func() {}, nil
	}

	client, err := config.NewRedisClient(cfg.RateLimit.RedisURL)

	if err != nil {
		return nil, nil, err
	}

	logger.Info(context.Background(), "Rate limit counters shared through redis")

	return config.NewRedisStore(client), func() { client.Close() }, nil
}
