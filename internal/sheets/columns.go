package sheets

import (
	"fmt"
	"strings"

	"moodqueue/internal/core"
)

// Header names of the mood table, in column order.
const (
	HeaderTimestamp = "timestamp"
	HeaderMood      = "mood"
	HeaderNote      = "note"
)

// Header returns the canonical header row.
func Header() []string {
	return []string{HeaderTimestamp, HeaderMood, HeaderNote}
}

// Columns locates the mood fields inside a header row so data rows can be
// read by field name rather than position.
type Columns struct {
	timestamp int
	mood      int
	note      int
}

// NewColumns indexes a header row. Matching ignores case and surrounding
// space. Missing headers resolve to -1 and read as empty strings.
func NewColumns(header []string) Columns {
	return Columns{
		timestamp: indexOf(header, HeaderTimestamp),
		mood:      indexOf(header, HeaderMood),
		note:      indexOf(header, HeaderNote),
	}
}

// Complete reports whether every mood header was found.
func (c Columns) Complete() bool {
	return c.timestamp >= 0 && c.mood >= 0 && c.note >= 0
}

// Record reads one data row.
func (c Columns) Record(row []string) core.RawRecord {
	return core.RawRecord{
		Timestamp: strings.TrimSpace(safeGet(row, c.timestamp)),
		Mood:      strings.TrimSpace(safeGet(row, c.mood)),
		Note:      safeGet(row, c.note),
	}
}

// Records converts a values matrix whose first row is the header, the
// layout the Sheets API returns for a whole-column range.
func Records(values [][]any) []core.RawRecord {
	if len(values) == 0 {
		return nil
	}
	cols := NewColumns(ToStrings(values[0]))
	out := make([]core.RawRecord, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := cols.Record(ToStrings(row))
		if rec.Timestamp == "" && rec.Mood == "" && rec.Note == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ToStrings renders cell values as text.
func ToStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
