package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"moodqueue/internal/core"
	ports "moodqueue/internal/sheets"
)

var _ ports.Store = (*Store)(nil)

// Store keeps rows in process memory in append order.
type Store struct {
	mu    sync.Mutex
	items []core.RawRecord
}

func New(seed ...core.RawRecord) *Store {
	return &Store{items: append([]core.RawRecord(nil), seed...)}
}

// NewFromFiles seeds the store from <base>/seed_moods.csv if present. The
// file uses the sheet layout: a timestamp,mood,note header then one row
// per record. Unreadable files leave the store empty.
func NewFromFiles(base string) *Store {
	recs, err := readSeed(filepath.Join(base, "seed_moods.csv"))
	if err != nil {
		return New()
	}
	return New(recs...)
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r core.MoodRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r.Raw())
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// ReadAll returns a copy of every row in insertion order.
func (s *Store) ReadAll(_ context.Context) ([]core.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RawRecord(nil), s.items...), nil
}

// Len reports the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func readSeed(path string) ([]core.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := ports.NewColumns(header)

	var out []core.RawRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := cols.Record(row)
		if strings.TrimSpace(rec.Timestamp) == "" && strings.TrimSpace(rec.Mood) == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
