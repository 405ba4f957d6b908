package backend

import (
	"context"
	"fmt"

	"moodqueue/internal/adapters"
	"moodqueue/internal/amqp"
	applog "moodqueue/internal/log"
	"moodqueue/internal/services"
	gsheet "moodqueue/internal/sheets/google"
	"moodqueue/internal/sheets/memory"
	"moodqueue/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Nop()
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional. The publisher stays a nil interface when it is off.
	var publisher services.SyncPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync messages",
				applog.FieldError, err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	moodService := services.NewMoodService(sqliteRepo, publisher)
	adapter := adapters.NewSQLiteAdapter(sqliteRepo, moodService)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: adapter,
		Cleanup: adapter.Close,
		Ready:   adapter.Ping,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := NewSheetsClient(ctx, config)
	if err != nil {
		return nil, err
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend",
		"worksheet", config.GoogleWorksheet)

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"data_directory", dataDir,
		applog.FieldRecords, store.Len())

	return &BackendResult{Backend: store}, nil
}

// NewSheetsClient builds a Sheets client from backend config. The worker and
// the init tool use it directly.
func NewSheetsClient(ctx context.Context, config Config) (*gsheet.Client, error) {
	creds, err := gsheet.LoadCredentials(config.ServiceAccountJSON, config.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load service account credentials: %w", err)
	}
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSheetID,
		Worksheet:       config.GoogleWorksheet,
		CredentialsJSON: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}
