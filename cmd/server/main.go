package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"me-profile/internal/config"
	"me-profile/internal/handlers"
	"me-profile/internal/middleware"
	"me-profile/internal/models"
	"me-profile/internal/observability"
	"me-profile/internal/ratelimit"
	"me-profile/internal/routers"
	"me-profile/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	slog.SetDefault(observability.NewLogger(os.Stdout, cfg.LogLevel))

	limit, err := ratelimit.ParseLimit(cfg.RateLimit)
	if err != nil {
		slog.Error("invalid rate limit", slog.String("error", err.Error()))
		return 1
	}

	// Initialize OpenTelemetry (metrics + optional traces).
	shutdown, err := observability.SetupOTel(ctx, cfg.OtelEndpoint, cfg.ServiceName, cfg.DisableTraces)
	if err != nil {
		slog.Error("otel init failed", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("otel shutdown error", slog.String("error", err.Error()))
		}
	}()

	m, err := observability.NewMetrics()
	if err != nil {
		slog.Error("metrics init failed", slog.String("error", err.Error()))
		return 1
	}

	limiter, closeLimiter, err := ratelimit.NewStore(ctx, limit, cfg.RateLimitStrategy, cfg.RateLimitStorageURI)
	if err != nil {
		slog.Error("rate limiter init failed", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := closeLimiter(); err != nil {
			slog.Warn("rate limiter close error", slog.String("error", err.Error()))
		}
	}()

	facts := services.NewFactClient(cfg.FactsURL, cfg.UpstreamTimeout, cfg.UpstreamConnectTimeout,
		services.WithMetrics(m),
	)

	h := handlers.New(models.User{
		Email: cfg.Profile.Email,
		Name:  cfg.Profile.Name,
		Stack: cfg.Profile.Stack,
	}, facts)

	r := routers.NewRouter(m, h, routers.Options{
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		KeyFunc:     middleware.ClientKey(cfg.TrustForwardedFor),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening",
			slog.String("addr", srv.Addr),
			slog.String("facts_url", cfg.FactsURL),
			slog.String("rate_limit", limit.String()),
			slog.String("rate_limit_strategy", cfg.RateLimitStrategy),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", slog.String("error", err.Error()))
			return 1
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
