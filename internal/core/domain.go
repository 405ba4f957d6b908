package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	MinMood Mood = 1
	MaxMood Mood = 5

	// MaxNoteLength caps free-text notes submitted through the form, in runes.
	MaxNoteLength = 500
)

type (
	// Mood is a rating in the closed range [MinMood, MaxMood].
	Mood int

	// MoodRecord is one logged entry as it is written to a store.
	MoodRecord struct {
		Timestamp string // "YYYY-MM-DD HH:MM:SS", Pacific wall clock
		Mood      Mood
		Note      string
	}

	// RawRecord is one row as read back from a store. Fields stay as text
	// so aggregation can decide whether a row is usable.
	RawRecord struct {
		Timestamp string
		Mood      string
		Note      string
	}
)

var (
	ErrInvalidMood    = errors.New("mood must be between 1 and 5")
	ErrNoteTooLong    = errors.New("note too long (max 500 characters)")
	ErrInvalidDate    = errors.New("date must be in YYYY-MM-DD format")
	ErrEmptyTimestamp = errors.New("empty timestamp")
)

// Moods lists the full mood domain in ascending order.
func Moods() []Mood {
	return []Mood{1, 2, 3, 4, 5}
}

func (m Mood) Valid() bool {
	return m >= MinMood && m <= MaxMood
}

func (m Mood) Validate() error {
	if !m.Valid() {
		return ErrInvalidMood
	}
	return nil
}

// Label returns the display emoji for m, or "" outside the domain.
func (m Mood) Label() string {
	switch m {
	case 1:
		return "😡"
	case 2:
		return "😠"
	case 3:
		return "🤔"
	case 4:
		return "🙂"
	case 5:
		return "😁"
	}
	return ""
}

func (m Mood) String() string {
	return strconv.Itoa(int(m))
}

// MoodFromLabel is the inverse of Label.
func MoodFromLabel(label string) (Mood, bool) {
	label = strings.TrimSpace(label)
	for _, m := range Moods() {
		if m.Label() == label {
			return m, true
		}
	}
	return 0, false
}

// ParseMood reads a stored mood value. Integers and integral floats
// ("4", "4.0") are accepted; the result is range checked.
func ParseMood(s string) (Mood, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMood
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
			return 0, ErrInvalidMood
		}
		if f < float64(MinMood) || f > float64(MaxMood) {
			return 0, ErrInvalidMood
		}
		n = int(f)
	}
	m := Mood(n)
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m, nil
}

// Validate checks what every store needs to write a row. Note length is
// not checked here; the form handler caps it.
func (r MoodRecord) Validate() error {
	if strings.TrimSpace(r.Timestamp) == "" {
		return ErrEmptyTimestamp
	}
	return r.Mood.Validate()
}

// Raw returns the record as a store would hand it back.
func (r MoodRecord) Raw() RawRecord {
	return RawRecord{Timestamp: r.Timestamp, Mood: r.Mood.String(), Note: r.Note}
}

// DatePart returns the calendar date prefix of a timestamp. Shorter
// strings are returned whole.
func DatePart(ts string) string {
	if len(ts) < DateLayoutLen {
		return ts
	}
	return ts[:DateLayoutLen]
}
