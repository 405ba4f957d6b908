package main

import (
	"context"
	"fmt"
	"os"

	"moodqueue/internal/amqp"
	"moodqueue/internal/backend"
	"moodqueue/internal/cli"
	"moodqueue/internal/config"
	applog "moodqueue/internal/log"
	"moodqueue/internal/storage"
	"moodqueue/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(applog.ComponentWorker)

	if err := cfg.ValidateSheets(); err != nil {
		logger.Error("The worker needs Google Sheets settings", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("moodqueue-worker exited", applog.FieldError, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open sqlite repository %s: %w", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	sheetsClient, err := backend.NewSheetsClient(ctx, backendCfg)
	if err != nil {
		return err
	}

	if stats, err := repo.SyncStats(ctx); err == nil {
		logger.InfoContext(ctx, "Starting moodqueue-worker",
			applog.FieldOperation, applog.OpStartup,
			"pending", stats[storage.SyncPending],
			"errored", stats[storage.SyncError],
			"synced", stats[storage.SyncSynced])
	}

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncBatchSize, logger)
	scheduler := worker.NewScheduler(syncWorker, cfg.SyncSchedule, logger)

	tasks := []cli.Task{func(ctx context.Context) error {
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		scheduler.Stop()
		return ctx.Err()
	}}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()
		tasks = append(tasks, func(ctx context.Context) error {
			return client.ConsumeMoodSync(ctx, syncWorker.HandleSyncMessage)
		})
	} else {
		logger.InfoContext(ctx, "AMQP_URL not set, relying on the scheduled sweep only",
			"schedule", cfg.SyncSchedule)
	}

	return cli.Run(ctx, logger, tasks...)
}
