package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"moodqueue/internal/amqp"
	"moodqueue/internal/core"
	applog "moodqueue/internal/log"
	"moodqueue/internal/sheets"
	"moodqueue/internal/storage"
)

// MoodSource is the slice of the SQLite repository the worker drives.
type MoodSource interface {
	GetMood(ctx context.Context, id int64) (*storage.Mood, error)
	GetPendingSyncMoods(ctx context.Context, limit int) ([]storage.PendingSyncMood, error)
	MarkSynced(ctx context.Context, id int64, remoteRef string) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker copies locally stored moods to Google Sheets.
type SyncWorker struct {
	storage   MoodSource
	sheets    sheets.MoodAppender
	batchSize int
	logger    *applog.Logger
	sl        *applog.StructuredLogger

	// Serializes syncs so a message and a sweep never append the same row twice.
	mu sync.Mutex
}

func NewSyncWorker(storage MoodSource, sheets sheets.MoodAppender, batchSize int, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.Nop()
	}
	if batchSize < 1 {
		batchSize = 10
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
		logger:    logger,
		sl:        applog.NewStructuredLogger(logger),
	}
}

// HandleSyncMessage processes one mood sync message from AMQP. A nil return
// acks the message, including for rows that need no work.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MoodSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	w.mu.Lock()
	defer w.mu.Unlock()

	mood, err := w.storage.GetMood(ctx, msg.ID)
	if errors.Is(err, storage.ErrMoodNotFound) {
		w.logger.WarnContext(ctx, "Sync message for unknown mood, dropping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get mood from storage: %w", err)
	}

	switch {
	case mood.SyncStatus == storage.SyncSynced:
		w.logger.DebugContext(ctx, "Mood already synced", "id", mood.ID, applog.FieldRowRef, mood.RemoteRef)
		return nil
	case msg.Version < mood.Version:
		w.logger.DebugContext(ctx, "Stale sync message", "id", mood.ID, "version", msg.Version, "current", mood.Version)
		return nil
	case mood.SyncAttempts >= storage.MaxSyncAttempts:
		w.logger.ErrorContext(ctx, "Mood exceeded sync attempts, giving up",
			"id", mood.ID, "attempts", mood.SyncAttempts)
		return nil
	}

	return w.syncMood(ctx, mood)
}

// ProcessPendingMoods syncs up to one batch of moods still marked pending or
// errored. It covers messages that were lost or never published.
func (w *SyncWorker) ProcessPendingMoods(ctx context.Context) (int, error) {
	pending, err := w.storage.GetPendingSyncMoods(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending moods: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending moods", applog.FieldRecords, len(pending))

	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if w.syncPending(ctx, p.ID) {
			synced++
		}
	}

	w.logger.InfoContext(ctx, "Pending sweep completed",
		"total", len(pending),
		"synced", synced,
		"errors", len(pending)-synced)
	return synced, nil
}

func (w *SyncWorker) syncPending(ctx context.Context, id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	mood, err := w.storage.GetMood(ctx, id)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to get mood", "id", id, applog.FieldError, err)
		return false
	}
	// A message may have synced it since the batch was read.
	if mood.SyncStatus == storage.SyncSynced {
		return true
	}
	return w.syncMood(ctx, mood) == nil
}

func (w *SyncWorker) syncMood(ctx context.Context, m *storage.Mood) error {
	rec := core.MoodRecord{
		Timestamp: m.Timestamp,
		Mood:      core.Mood(m.Mood),
		Note:      m.Note,
	}

	ref, err := w.sheets.Append(ctx, rec)
	if err != nil {
		w.sl.LogError(ctx, "Failed to sync mood", err, sheets.Classify(err),
			applog.ComponentWorker, applog.OpSync,
			applog.NewFields().WithMood(int(rec.Mood), len([]rune(rec.Note))))
		if markErr := w.storage.MarkSyncError(ctx, m.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", "id", m.ID, applog.FieldError, markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is in the sheet now; a failed mark only means a later resync.
	if err := w.storage.MarkSynced(ctx, m.ID, ref); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", "id", m.ID, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Synced mood",
		"id", m.ID,
		applog.FieldRowRef, ref,
		applog.FieldMood, m.Mood)
	return nil
}
