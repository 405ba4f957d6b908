package core

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	DateLayoutLen   = len(DateLayout)

	DefaultTimezone = "America/Los_Angeles"
)

// Clock yields timestamps and calendar dates in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock builds a Clock for the named IANA zone.
func NewClock(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// PacificClock returns a Clock for US Pacific time.
func PacificClock() *Clock {
	c, err := NewClock(DefaultTimezone)
	if err != nil {
		// tzdata is embedded, so the zone always resolves.
		panic(err)
	}
	return c
}

// FixedClock returns a Clock that always reports t. Used by tests.
func FixedClock(t time.Time, loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: func() time.Time { return t }}
}

func (c *Clock) Location() *time.Location { return c.loc }

// Timestamp formats the current instant as "YYYY-MM-DD HH:MM:SS".
func (c *Clock) Timestamp() string {
	return c.now().In(c.loc).Format(TimestampLayout)
}

// Today returns the current calendar date as "YYYY-MM-DD".
func (c *Clock) Today() string {
	return c.now().In(c.loc).Format(DateLayout)
}

// ParseDate checks s is a real calendar date in YYYY-MM-DD form and
// returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Format(DateLayout), nil
}
