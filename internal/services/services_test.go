package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"moodqueue/internal/core"
	applog "moodqueue/internal/log"
	"moodqueue/internal/sheets"
	"moodqueue/internal/sheets/memory"
)

type fakeStore struct {
	records   []core.RawRecord
	appended  []core.MoodRecord
	appendErr error
	readErr   error
	reads     int
}

func (f *fakeStore) Append(_ context.Context, r core.MoodRecord) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appended = append(f.appended, r)
	f.records = append(f.records, r.Raw())
	return "row-1", nil
}

func (f *fakeStore) ReadAll(context.Context) ([]core.RawRecord, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]core.RawRecord(nil), f.records...), nil
}

func bufferLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Output: buf, Format: "json"})
}

var fixedNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func TestRecorderSubmit(t *testing.T) {
	store := &fakeStore{}
	var buf bytes.Buffer
	r := NewRecorder(store, core.FixedClock(fixedNow, time.UTC), bufferLogger(&buf))

	if !r.Submit(context.Background(), 4, "sunny") {
		t.Fatal("Submit should succeed")
	}
	want := core.MoodRecord{Timestamp: "2024-01-01 09:30:00", Mood: 4, Note: "sunny"}
	if len(store.appended) != 1 || store.appended[0] != want {
		t.Fatalf("appended %+v, want %+v", store.appended, want)
	}
	if strings.Contains(buf.String(), "sunny") {
		t.Fatalf("note text must not be logged: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"note_length":5`) {
		t.Fatalf("expected note length in log: %s", buf.String())
	}
}

func TestRecorderSubmitFailure(t *testing.T) {
	var buf bytes.Buffer
	store := &fakeStore{appendErr: context.DeadlineExceeded}
	r := NewRecorder(store, nil, bufferLogger(&buf))
	if r.Submit(context.Background(), 2, "") {
		t.Fatal("Submit should report failure")
	}
	if !strings.Contains(buf.String(), `"error_type":"`+applog.ErrorTypeTimeout+`"`) {
		t.Fatalf("expected classified error in log: %s", buf.String())
	}

	if NewRecorder(nil, nil, nil).Submit(context.Background(), 3, "") {
		t.Fatal("Submit without a store should fail")
	}
}

func TestRecorderSubmitLongNote(t *testing.T) {
	store := memory.New()
	r := NewRecorder(store, core.FixedClock(fixedNow, time.UTC), nil)
	if !r.Submit(context.Background(), 3, strings.Repeat("a", core.MaxNoteLength+1)) {
		t.Fatal("Submit should store a note longer than the form cap")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored record, got %d", store.Len())
	}
}

func TestAggregatorCounts(t *testing.T) {
	store := &fakeStore{records: []core.RawRecord{
		{Timestamp: "2024-01-01 09:00:00", Mood: "3"},
		{Timestamp: "2024-01-01 22:00:00", Mood: "5", Note: "great day"},
		{Timestamp: "2023-12-31 23:59:59", Mood: "1"},
		{Timestamp: "2024-01-01 10:00:00", Mood: "9"},
	}}
	a := NewAggregator(store, core.FixedClock(fixedNow, time.UTC), nil)
	ctx := context.Background()

	got := a.CountToday(ctx)
	want := core.MoodCounts{1: 0, 2: 0, 3: 1, 4: 0, 5: 1}
	for m, n := range want {
		if got[m] != n {
			t.Errorf("today count[%d] = %d, want %d", m, got[m], n)
		}
	}

	all := a.CountByMood(ctx, "2023-12-01", "2024-01-31")
	if all.Total() != 3 || all[1] != 1 {
		t.Fatalf("range counts = %v", all)
	}

	// Every call re-reads.
	a.CountByMood(ctx, "2024-01-01", "2024-01-01")
	if store.reads != 3 {
		t.Fatalf("expected 3 reads, got %d", store.reads)
	}
	if a.Today() != "2024-01-01" {
		t.Fatalf("Today = %q", a.Today())
	}
}

func TestAggregatorDegradesToEmpty(t *testing.T) {
	var buf bytes.Buffer
	store := &fakeStore{readErr: errors.New("sheet unreachable")}
	a := NewAggregator(store, nil, bufferLogger(&buf))
	ctx := context.Background()

	counts := a.CountByMood(ctx, "2024-01-01", "2024-01-31")
	if len(counts) != int(core.MaxMood) || counts.Total() != 0 {
		t.Fatalf("expected all-zero counts, got %v", counts)
	}
	notes := a.LatestNoteByMood(ctx)
	for _, m := range core.Moods() {
		if notes[m] != "" {
			t.Fatalf("expected empty notes, got %v", notes)
		}
	}
	if !strings.Contains(buf.String(), "degraded to empty") {
		t.Fatalf("expected degrade log: %s", buf.String())
	}

	nilStore := NewAggregator(nil, nil, nil)
	if nilStore.CountToday(ctx).Total() != 0 {
		t.Fatal("nil store should count nothing")
	}
}

func TestAggregatorLatestNotes(t *testing.T) {
	store := &fakeStore{records: []core.RawRecord{
		{Timestamp: "2024-01-02 10:00:00", Mood: "5", Note: "newer"},
		{Timestamp: "2024-01-01 10:00:00", Mood: "5", Note: "older"},
		{Timestamp: "2024-01-01 11:00:00", Mood: "2", Note: "meh"},
	}}
	notes := NewAggregator(store, nil, nil).LatestNoteByMood(context.Background())
	if notes[5] != "newer" || notes[2] != "meh" || notes[1] != "" {
		t.Fatalf("unexpected notes: %v", notes)
	}
}

type fakeMoodStorage struct {
	ref    string
	err    error
	closed bool
}

func (f *fakeMoodStorage) Append(context.Context, core.MoodRecord) (string, error) {
	return f.ref, f.err
}

func (f *fakeMoodStorage) Close() error { f.closed = true; return nil }

type fakePublisher struct {
	ids        []int64
	timestamps []string
	err        error
	closeErr   error
}

func (f *fakePublisher) PublishMoodSync(_ context.Context, id int64, ts string, _ int64) error {
	f.ids = append(f.ids, id)
	f.timestamps = append(f.timestamps, ts)
	return f.err
}

func (f *fakePublisher) Close() error { return f.closeErr }

func TestMoodServiceCreateMood(t *testing.T) {
	ctx := context.Background()
	rec := core.MoodRecord{Timestamp: "2024-01-01 09:00:00", Mood: 3}

	t.Run("publishes after saving", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := NewMoodService(&fakeMoodStorage{ref: "12"}, pub)
		ref, err := svc.CreateMood(ctx, rec)
		if err != nil || ref != "12" {
			t.Fatalf("CreateMood = %q, %v", ref, err)
		}
		if len(pub.ids) != 1 || pub.ids[0] != 12 || pub.timestamps[0] != rec.Timestamp {
			t.Fatalf("unexpected publish: %+v", pub)
		}
	})

	t.Run("publish failure keeps the save", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		ref, err := NewMoodService(&fakeMoodStorage{ref: "3"}, pub).CreateMood(ctx, rec)
		if err != nil || ref != "3" {
			t.Fatalf("CreateMood = %q, %v", ref, err)
		}
	})

	t.Run("save failure is returned", func(t *testing.T) {
		pub := &fakePublisher{}
		_, err := NewMoodService(&fakeMoodStorage{err: core.ErrInvalidMood}, pub).CreateMood(ctx, rec)
		if !errors.Is(err, core.ErrInvalidMood) {
			t.Fatalf("expected ErrInvalidMood, got %v", err)
		}
		if len(pub.ids) != 0 {
			t.Fatal("nothing should be published when the save fails")
		}
	})

	t.Run("no publisher", func(t *testing.T) {
		if _, err := NewMoodService(&fakeMoodStorage{ref: "1"}, nil).CreateMood(ctx, rec); err != nil {
			t.Fatalf("CreateMood: %v", err)
		}
	})

	t.Run("no storage", func(t *testing.T) {
		if _, err := NewMoodService(nil, nil).CreateMood(ctx, rec); err == nil {
			t.Fatal("expected error without storage")
		}
	})
}

func TestMoodServiceClose(t *testing.T) {
	if err := NewMoodService(nil, nil).Close(); err != nil {
		t.Fatalf("Close with nil components: %v", err)
	}

	st := &fakeMoodStorage{}
	err := NewMoodService(st, &fakePublisher{closeErr: errors.New("boom")}).Close()
	if !st.closed {
		t.Fatal("storage should be closed")
	}
	if err == nil || !strings.Contains(err.Error(), "amqp: boom") {
		t.Fatalf("expected joined close error, got %v", err)
	}
}

var _ sheets.Store = (*fakeStore)(nil)
