// Package cli holds the startup and shutdown steps shared by the
// moodqueue commands.
package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"moodqueue/internal/config"
	applog "moodqueue/internal/log"
)

// SetupLogger builds the application logger from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	lc := applog.DefaultConfig()
	if cfg != nil {
		lc.Level = applog.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is fine in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads .env and the environment, then validates.
// It exits the process on any problem.
func LoadAndValidateConfig() (*config.Config, *applog.Logger) {
	LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		logger := SetupLogger(nil)
		logger.Error("Failed to load configuration", applog.FieldError, err)
		os.Exit(1)
	}
	logger := SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context canceled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Task is one long-running part of a process. It returns when ctx is done.
type Task func(ctx context.Context) error

// Run starts every task and waits. The first task to fail cancels the rest.
// A task returning context.Canceled after shutdown is not an error.
func Run(ctx context.Context, logger *applog.Logger, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(gctx) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		logger.Error("Process stopped with error", applog.FieldOperation, applog.OpShutdown, applog.FieldError, err)
		return err
	}
	logger.Info("Shutdown complete", applog.FieldOperation, applog.OpShutdown)
	return nil
}

// ServeHTTP is a Task that runs srv until ctx is done and then drains it
// within timeout.
func ServeHTTP(srv *http.Server, timeout time.Duration, logger *applog.Logger) Task {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("Shutdown signal received, draining HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown timed out", applog.FieldError, err)
			return err
		}
		return <-errCh
	}
}
