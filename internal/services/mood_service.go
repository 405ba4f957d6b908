package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"moodqueue/internal/core"
)

// MoodStorage is the local write-ahead store.
type MoodStorage interface {
	Append(ctx context.Context, m core.MoodRecord) (string, error)
	Close() error
}

// SyncPublisher announces a stored mood to the sync worker.
type SyncPublisher interface {
	PublishMoodSync(ctx context.Context, id int64, timestamp string, version int64) error
	Close() error
}

// MoodService saves moods locally and queues them for the sheet.
type MoodService struct {
	storage   MoodStorage
	publisher SyncPublisher
}

// NewMoodService wires the store and the publisher. A nil publisher leaves
// every row to the worker's pending sweep.
func NewMoodService(storage MoodStorage, publisher SyncPublisher) *MoodService {
	return &MoodService{storage: storage, publisher: publisher}
}

// CreateMood saves m and publishes a sync message for it. A failed publish
// is logged only; the row stays pending and the sweep picks it up.
func (s *MoodService) CreateMood(ctx context.Context, m core.MoodRecord) (string, error) {
	if s.storage == nil {
		return "", errors.New("mood storage not configured")
	}
	ref, err := s.storage.Append(ctx, m)
	if err != nil {
		return "", fmt.Errorf("save mood: %w", err)
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse mood ID", "ref", ref, "error", err)
		return ref, nil
	}

	// New rows always start at version 1.
	if err := s.publishSyncMessage(ctx, id, m.Timestamp, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}

	return ref, nil
}

func (s *MoodService) publishSyncMessage(ctx context.Context, id int64, timestamp string, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return nil
	}
	return s.publisher.PublishMoodSync(ctx, id, timestamp, version)
}

// Close closes both storage and publisher.
func (s *MoodService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close mood service: %w", err)
	}
	return nil
}
