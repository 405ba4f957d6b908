package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"moodqueue/internal/core"
)

// ErrRangeOrder is returned when start falls after end.
var ErrRangeOrder = errors.New("start date after end date")

// MoodInput is a validated submit form.
type MoodInput struct {
	Mood core.Mood
	Note string
}

// ParseMoodForm reads the mood and note fields. The mood must be an integer
// in range and the note must fit MaxNoteLength after sanitizing.
func ParseMoodForm(form url.Values) (MoodInput, error) {
	raw := strings.TrimSpace(form.Get("mood"))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return MoodInput{}, fmt.Errorf("%w: %q", core.ErrInvalidMood, raw)
	}
	mood := core.Mood(n)
	if err := mood.Validate(); err != nil {
		return MoodInput{}, err
	}

	note := sanitizeInput(form.Get("note"))
	if utf8.RuneCountInString(note) > core.MaxNoteLength {
		return MoodInput{}, core.ErrNoteTooLong
	}
	return MoodInput{Mood: mood, Note: note}, nil
}

// DateRange is an inclusive [Start, End] pair of YYYY-MM-DD dates.
type DateRange struct {
	Start string
	End   string
}

// ParseDateRange reads start and end from the query. A missing value
// defaults to today. Malformed dates wrap core.ErrInvalidDate and a reversed
// range returns ErrRangeOrder together with the parsed range.
func ParseDateRange(query url.Values, today string) (DateRange, error) {
	rng := DateRange{Start: today, End: today}
	for _, p := range []struct {
		key string
		dst *string
	}{{"start", &rng.Start}, {"end", &rng.End}} {
		v := strings.TrimSpace(query.Get(p.key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return DateRange{}, fmt.Errorf("%s: %w", p.key, err)
		}
		*p.dst = d
	}
	if rng.Start > rng.End {
		return rng, ErrRangeOrder
	}
	return rng, nil
}

// sanitizeInput trims s and strips control characters other than tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, s)
}
