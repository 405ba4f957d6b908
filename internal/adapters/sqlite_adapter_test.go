package adapters

import (
	"context"
	"path/filepath"
	"testing"

	"moodqueue/internal/core"
	"moodqueue/internal/services"
	"moodqueue/internal/storage"
)

func TestSQLiteAdapterRoundTrip(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "moods.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	a := NewSQLiteAdapter(repo, services.NewMoodService(repo, nil))
	t.Cleanup(func() { a.Close() })
	ctx := context.Background()

	if err := a.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	ref, err := a.Append(ctx, core.MoodRecord{Timestamp: "2024-01-01 09:00:00", Mood: 5, Note: "great day"})
	if err != nil || ref != "1" {
		t.Fatalf("Append = %q, %v", ref, err)
	}

	recs, err := a.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 1 || recs[0].Mood != "5" || recs[0].Note != "great day" {
		t.Fatalf("unexpected records: %+v", recs)
	}

	counts := core.CountByMood(recs, "2024-01-01", "2024-01-01")
	if counts[5] != 1 {
		t.Fatalf("counts = %v", counts)
	}

	// Queued for the worker.
	pending, err := repo.GetPendingSyncMoods(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
}
