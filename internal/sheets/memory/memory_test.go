package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moodqueue/internal/core"
)

func TestMemoryStoreAppendAndReadAll(t *testing.T) {
	s := New()
	ref, err := s.Append(context.Background(), core.MoodRecord{
		Timestamp: "2024-01-01 09:00:00",
		Mood:      3,
		Note:      "ok",
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	if _, err := s.Append(context.Background(), core.MoodRecord{Timestamp: "x", Mood: 9}); err == nil {
		t.Fatalf("expected validation error for mood 9")
	}

	recs, err := s.ReadAll(context.Background())
	if err != nil || len(recs) != 1 {
		t.Fatalf("unexpected read: recs=%v err=%v", recs, err)
	}
	want := core.RawRecord{Timestamp: "2024-01-01 09:00:00", Mood: "3", Note: "ok"}
	if recs[0] != want {
		t.Fatalf("got %+v, want %+v", recs[0], want)
	}

	// Returned slice is a copy.
	recs[0].Note = "changed"
	again, _ := s.ReadAll(context.Background())
	if again[0].Note != "ok" {
		t.Fatalf("ReadAll leaked internal slice")
	}
}

func TestMemoryStoreAppendLongNote(t *testing.T) {
	s := New()
	note := strings.Repeat("é", core.MaxNoteLength+10)
	if _, err := s.Append(context.Background(), core.MoodRecord{Timestamp: "2024-01-01 09:00:00", Mood: 2, Note: note}); err != nil {
		t.Fatalf("append long note: %v", err)
	}
	recs, _ := s.ReadAll(context.Background())
	if len(recs) != 1 || recs[0].Note != note {
		t.Fatalf("long note not stored intact: %+v", recs)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	if s := NewFromFiles(dir); s.Len() != 0 {
		t.Fatalf("expected empty store when seed missing, got %d", s.Len())
	}

	content := "# seed\nTimestamp,Mood,Note\n" +
		"2024-01-01 09:00:00,3,\n" +
		"2024-01-01 10:00:00,5,\"great day, really\"\n" +
		",,\n" +
		"2024-01-02 08:00:00,7,bad row kept for filtering\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_moods.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s := NewFromFiles(dir)
	recs, _ := s.ReadAll(context.Background())
	if len(recs) != 3 {
		t.Fatalf("expected 3 seeded rows, got %d: %+v", len(recs), recs)
	}
	if recs[1].Note != "great day, really" || recs[1].Mood != "5" {
		t.Fatalf("unexpected second row: %+v", recs[1])
	}
	if recs[2].Mood != "7" {
		t.Fatalf("invalid moods are stored verbatim, got %+v", recs[2])
	}
}
