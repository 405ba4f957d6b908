package sheets

import (
	"context"

	"moodqueue/internal/core"
)

// Ports for outbound adapters.
type (
	// MoodAppender adds one row to the backing table.
	MoodAppender interface {
		Append(ctx context.Context, r core.MoodRecord) (rowRef string, err error)
	}

	// MoodReader returns every stored row in the store's native order.
	MoodReader interface {
		ReadAll(ctx context.Context) ([]core.RawRecord, error)
	}

	// Store is the full capability the recorder and aggregator need.
	Store interface {
		MoodAppender
		MoodReader
	}
)
