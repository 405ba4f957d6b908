// Command moodqueue-init writes the "timestamp | mood | note" header row to
// the configured worksheet when it is missing.
package main

import (
	"context"
	"os"
	"time"

	"moodqueue/internal/backend"
	"moodqueue/internal/cli"
	applog "moodqueue/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	if err := cfg.ValidateSheets(); err != nil {
		logger.Error("Google Sheets settings are incomplete", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}
	client, err := backend.NewSheetsClient(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	wrote, err := client.EnsureHeader(ctx)
	if err != nil {
		logger.Error("Failed to ensure header row", applog.FieldError, err)
		os.Exit(1)
	}
	if wrote {
		logger.Info("Header row written", "spreadsheet_id", cfg.GoogleSheetID, "worksheet", cfg.GoogleWorksheet)
		return
	}
	logger.Info("Header row already present", "spreadsheet_id", cfg.GoogleSheetID)
}
