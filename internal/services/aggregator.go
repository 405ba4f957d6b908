package services

import (
	"context"
	"fmt"

	"moodqueue/internal/core"
	applog "moodqueue/internal/log"
	"moodqueue/internal/sheets"
)

// Aggregator reduces the full record set into dashboard mappings. Every
// call re-reads the store; nothing is cached between calls.
type Aggregator struct {
	store  sheets.MoodReader
	clock  *core.Clock
	logger *applog.Logger
	sl     *applog.StructuredLogger
}

func NewAggregator(store sheets.MoodReader, clock *core.Clock, logger *applog.Logger) *Aggregator {
	if clock == nil {
		clock = core.PacificClock()
	}
	if logger == nil {
		logger = applog.Nop()
	}
	logger = logger.WithComponent(applog.ComponentAggregate)
	return &Aggregator{
		store:  store,
		clock:  clock,
		logger: logger,
		sl:     applog.NewStructuredLogger(logger),
	}
}

// CountByMood counts valid records dated within [start, end]. On a store
// fault it returns all zeros so the dashboard keeps rendering.
func (a *Aggregator) CountByMood(ctx context.Context, start, end string) core.MoodCounts {
	records, err := a.readAll(ctx)
	if err != nil {
		a.sl.LogError(ctx, "Count by mood degraded to empty", err, sheets.Classify(err),
			applog.ComponentAggregate, applog.OpCount, applog.NewFields().WithRange(start, end))
		return core.EmptyCounts()
	}
	counts := core.CountByMood(records, start, end)
	a.logger.DebugContext(ctx, "Counted moods",
		applog.FieldStartDate, start,
		applog.FieldEndDate, end,
		applog.FieldRecords, len(records),
		"matched", counts.Total())
	return counts
}

// CountToday is CountByMood over today's date in the clock's zone.
func (a *Aggregator) CountToday(ctx context.Context) core.MoodCounts {
	today := a.clock.Today()
	return a.CountByMood(ctx, today, today)
}

// LatestNoteByMood returns the most recent non-empty note per mood across
// the whole store. A store fault yields the empty mapping, the same policy
// CountByMood applies.
func (a *Aggregator) LatestNoteByMood(ctx context.Context) core.MoodNotes {
	records, err := a.readAll(ctx)
	if err != nil {
		a.sl.LogError(ctx, "Latest notes degraded to empty", err, sheets.Classify(err),
			applog.ComponentAggregate, applog.OpNotes, nil)
		return core.EmptyNotes()
	}
	return core.LatestNoteByMood(records)
}

// Today exposes the clock's current date for callers that need defaults.
func (a *Aggregator) Today() string {
	return a.clock.Today()
}

func (a *Aggregator) readAll(ctx context.Context) ([]core.RawRecord, error) {
	if a.store == nil {
		return nil, sheets.ErrNotConfigured
	}
	records, err := a.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read mood records: %w", err)
	}
	return records, nil
}
