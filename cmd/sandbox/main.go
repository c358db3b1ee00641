package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tair/storefront/internal/app"
	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/internal/sandbox"
	"github.com/tair/storefront/pkg/logger"
	"github.com/tair/storefront/pkg/tracing"
)

func main() {
	configPath := flag.String("config", os.Getenv("STOREFRONT_CONFIG"), "Path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init(sandbox.ServiceName, false)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(sandbox.ServiceName, cfg.App.IsDevelopment())
	logger.SetLevel(cfg.Log.Level)

	logger.Logger.Info().
		Str("service", sandbox.ServiceName).
		Str("environment", cfg.App.Env).
		Bool("seed", cfg.Sandbox.Seed).
		Msg("Starting storefront sandbox")

	// Initialize tracer
	telemetry := cfg.Telemetry
	telemetry.ServiceName = sandbox.ServiceName
	tp, err := tracing.InitTracer(telemetry)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, cleanup, err := app.InitializeSandbox(cfg, reg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize sandbox")
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.Sandbox.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		logger.Logger.Info().
			Str("addr", srv.Addr).
			Str("metrics", "http://localhost:"+cfg.Sandbox.Port+"/metrics").
			Msg("HTTP server starting")
		if cfg.Sandbox.Seed {
			logger.Logger.Info().
				Str("provider", sandbox.SeedProviderEmail).
				Str("consumer", sandbox.SeedConsumerEmail).
				Str("password", sandbox.SeedPassword).
				Msg("Demo accounts ready")
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down sandbox...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Logger.Info().Msg("Sandbox stopped")
}
