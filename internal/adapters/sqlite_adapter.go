package adapters

import (
	"context"

	"moodqueue/internal/core"
	"moodqueue/internal/services"
	"moodqueue/internal/sheets"
	"moodqueue/internal/storage"
)

// SQLiteAdapter serves the store ports from the local SQLite copy. Writes go
// through MoodService so each new row is queued for the sheet.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.MoodService
}

var _ sheets.Store = (*SQLiteAdapter)(nil)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.MoodService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// Append implements sheets.MoodAppender
func (a *SQLiteAdapter) Append(ctx context.Context, m core.MoodRecord) (string, error) {
	return a.service.CreateMood(ctx, m)
}

// ReadAll implements sheets.MoodReader
func (a *SQLiteAdapter) ReadAll(ctx context.Context) ([]core.RawRecord, error) {
	return a.storage.ReadAll(ctx)
}

// Ping reports whether the database answers.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

// Close releases the database and the AMQP connection.
func (a *SQLiteAdapter) Close() error {
	return a.service.Close()
}
