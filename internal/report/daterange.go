package report

import (
	"fmt"
	"strings"
	"time"
)

// storageTick is the resolution of a Postgres timestamptz. A non-midnight upper
// bound is made exclusive by advancing it one tick.
const storageTick = time.Microsecond

// Range is a normalized reporting window.
//
// From and To are the caller's logical, inclusive bounds and are echoed back in
// reports. Until is the physical exclusive upper bound used for filtering.
// A nil field means the window is open on that side.
type Range struct {
	From  *time.Time
	To    *time.Time
	Until *time.Time
}

// Bounded reports whether both sides of the range are set.
func (r Range) Bounded() bool {
	return r.From != nil && r.To != nil
}

// Contains reports whether t falls inside [From, Until).
func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}

	if r.Until != nil && !t.Before(*r.Until) {
		return false
	}

	return true
}

// ParseBound parses a caller-supplied date boundary. An empty string is an
// absent bound. Date-only values are read as UTC midnight; timestamps are
// accepted in RFC 3339 and converted to UTC.
func ParseBound(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return new(t.UTC()), nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return new(t.UTC()), nil
}

// NormalizeRange validates the bounds and derives the exclusive upper bound.
// It fails with ErrInvalidDateRange when from is after to; from == to is a
// valid single-instant (or, at midnight, single-day) window.
func NormalizeRange(from, to *time.Time) (Range, error) {
	var r Range

	if from != nil {
		r.From = new(from.UTC())
	}

	if to != nil {
		r.To = new(to.UTC())
	}

	if r.Bounded() && r.From.After(*r.To) {
		return Range{}, fmt.Errorf("%w: from %s is after to %s",
			ErrInvalidDateRange, r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
	}

	if r.To != nil {
		r.Until = new(exclusiveEnd(*r.To))
	}

	return r, nil
}

// exclusiveEnd turns an inclusive upper bound into an exclusive one. A UTC
// midnight bound covers its whole day.
func exclusiveEnd(to time.Time) time.Time {
	if isMidnight(to) {
		return to.AddDate(0, 0, 1)
	}

	return to.Truncate(storageTick).Add(storageTick)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// truncateDay returns UTC midnight of t's UTC calendar date.
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultWindow is the window used when a chart is requested without bounds:
// the start of now's UTC year through now's UTC date, inclusive.
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	today := truncateDay(now)
	return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), today
}
