package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"moodqueue/internal/backend"
	"moodqueue/internal/cli"
	"moodqueue/internal/config"
	"moodqueue/internal/core"
	apphttp "moodqueue/internal/http"
	applog "moodqueue/internal/log"
	"moodqueue/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("moodqueue exited", applog.FieldError, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	clock, err := core.NewClock(cfg.Timezone)
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend configuration: %w", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	srv, err := apphttp.NewServer(cfg.Address(),
		services.NewRecorder(result.Backend, clock, logger),
		services.NewAggregator(result.Backend, clock, logger),
		apphttp.Options{
			StoreTimeout:       cfg.StoreTimeout,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			Ready:              result.Ready,
			Logger:             logger,
		})
	if err != nil {
		return err
	}

	logger.Info("Starting moodqueue",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.Timezone)

	return cli.Run(ctx, logger, cli.ServeHTTP(&srv.Server, shutdownTimeout, logger))
}
