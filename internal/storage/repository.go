package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"moodqueue/internal/core"

	_ "modernc.org/sqlite"
)

// MaxSyncAttempts bounds how often the worker retries a failing row.
const MaxSyncAttempts = 5

// ErrMoodNotFound is returned when no row has the requested id.
var ErrMoodNotFound = errors.New("mood not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// PendingSyncMood is the minimal data needed for a sync queue message.
type PendingSyncMood struct {
	ID        int64
	Timestamp string
	Version   int64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer per process; the web process and the worker share the file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append stores a mood as pending sync and returns its row id.
func (r *SQLiteRepository) Append(ctx context.Context, m core.MoodRecord) (string, error) {
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	row, err := r.queries.CreateMood(ctx, CreateMoodParams{
		Timestamp: m.Timestamp,
		Mood:      int64(m.Mood),
		Note:      m.Note,
	})
	if err != nil {
		return "", fmt.Errorf("create mood: %w", err)
	}

	slog.InfoContext(ctx, "Mood saved to SQLite",
		"id", row.ID,
		"mood", row.Mood,
		"note_length", len([]rune(row.Note)),
		"timestamp", row.Timestamp)

	return strconv.FormatInt(row.ID, 10), nil
}

// ReadAll returns every stored mood in insertion order.
func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]core.RawRecord, error) {
	rows, err := r.queries.ListMoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	out := make([]core.RawRecord, len(rows))
	for i, row := range rows {
		out[i] = core.RawRecord{
			Timestamp: row.Timestamp,
			Mood:      strconv.FormatInt(row.Mood, 10),
			Note:      row.Note,
		}
	}
	return out, nil
}

// GetMood retrieves a single mood by id.
func (r *SQLiteRepository) GetMood(ctx context.Context, id int64) (*Mood, error) {
	m, err := r.queries.GetMood(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get mood %d: %w", id, ErrMoodNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get mood %d: %w", id, err)
	}
	return &m, nil
}

// GetPendingSyncMoods returns up to limit rows still waiting for the sheet,
// oldest first. Rows that failed MaxSyncAttempts times are left alone.
func (r *SQLiteRepository) GetPendingSyncMoods(ctx context.Context, limit int) ([]PendingSyncMood, error) {
	rows, err := r.queries.GetPendingSyncMoods(ctx, GetPendingSyncMoodsParams{
		MaxAttempts: MaxSyncAttempts,
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("get pending sync moods: %w", err)
	}
	out := make([]PendingSyncMood, len(rows))
	for i, row := range rows {
		out[i] = PendingSyncMood{ID: row.ID, Timestamp: row.Timestamp, Version: row.Version}
	}
	return out, nil
}

// MarkSynced records that the mood reached the sheet at remoteRef.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, remoteRef string) error {
	n, err := r.queries.MarkMoodSynced(ctx, id, remoteRef)
	if err != nil {
		return fmt.Errorf("mark mood synced: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark mood %d synced: %w", id, ErrMoodNotFound)
	}
	slog.InfoContext(ctx, "Mood marked as synced", "id", id, "row_ref", remoteRef)
	return nil
}

// MarkSyncError counts a failed sync attempt.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	n, err := r.queries.MarkMoodSyncError(ctx, id)
	if err != nil {
		return fmt.Errorf("mark mood sync error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark mood %d sync error: %w", id, ErrMoodNotFound)
	}
	slog.WarnContext(ctx, "Mood marked with sync error", "id", id)
	return nil
}

// SyncStats returns the number of rows per sync state.
func (r *SQLiteRepository) SyncStats(ctx context.Context) (map[string]int64, error) {
	counts, err := r.queries.CountBySyncStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by sync status: %w", err)
	}
	return counts, nil
}
