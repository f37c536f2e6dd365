package persistence

import (
	"context"
	"time"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

// DefaultTempKey names the learned-name segment when none is configured.
const DefaultTempKey = "chTemp.json"

// TempStore persists the learned (temp) segment of the lookup table. WriteTemp
// always replaces the whole segment stored under key.
type TempStore interface {
	ReadTemp(ctx context.Context, key string) (lookup.Table, error)
	WriteTemp(ctx context.Context, key string, entries lookup.Table) error
}

// BatchRecord summarizes one translated dialogue batch.
type BatchRecord struct {
	Path      string
	Output    string
	Lines     int
	Failed    int
	Skipped   int
	UpdatedAt time.Time
}

// BatchRecorder keeps a history of translated batches.
type BatchRecorder interface {
	RecordBatch(ctx context.Context, rec BatchRecord) error
	LoadBatches(ctx context.Context) ([]BatchRecord, error)
}

// markTemp tags every entry as learned before it is stored.
func markTemp(entries lookup.Table) lookup.Table {
	ret := make(lookup.Table, len(entries))
	for i, e := range entries {
		e.Tag = lookup.TagTemp
		ret[i] = e
	}
	return ret
}
