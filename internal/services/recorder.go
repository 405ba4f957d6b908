package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"moodqueue/internal/core"
	applog "moodqueue/internal/log"
	"moodqueue/internal/sheets"
)

// Recorder turns a submitted mood into a timestamped row in the store.
type Recorder struct {
	store  sheets.MoodAppender
	clock  *core.Clock
	logger *applog.Logger
	sl     *applog.StructuredLogger
}

func NewRecorder(store sheets.MoodAppender, clock *core.Clock, logger *applog.Logger) *Recorder {
	if clock == nil {
		clock = core.PacificClock()
	}
	if logger == nil {
		logger = applog.Nop()
	}
	logger = logger.WithComponent(applog.ComponentRecorder)
	return &Recorder{
		store:  store,
		clock:  clock,
		logger: logger,
		sl:     applog.NewStructuredLogger(logger),
	}
}

// Submit appends (now, mood, note) to the store and reports whether the
// write went through. The mood is assumed to be validated by the caller.
// Failures are logged with their cause and reported only as false.
func (r *Recorder) Submit(ctx context.Context, mood core.Mood, note string) bool {
	rec := core.MoodRecord{
		Timestamp: r.clock.Timestamp(),
		Mood:      mood,
		Note:      note,
	}
	ref, err := r.append(ctx, rec)
	if err != nil {
		r.sl.LogError(ctx, "Mood submit failed", err, sheets.Classify(err),
			applog.ComponentRecorder, applog.OpAppend,
			applog.NewFields().WithMood(int(mood), utf8.RuneCountInString(note)))
		return false
	}
	r.sl.LogMoodRecorded(ctx, int(mood), utf8.RuneCountInString(note), rec.Timestamp, ref)
	return true
}

func (r *Recorder) append(ctx context.Context, rec core.MoodRecord) (string, error) {
	if r.store == nil {
		return "", sheets.ErrNotConfigured
	}
	ref, err := r.store.Append(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("append mood record: %w", err)
	}
	return ref, nil
}
