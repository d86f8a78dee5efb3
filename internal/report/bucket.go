package report

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the time unit transactions are grouped by.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	// GranularityAll collapses every transaction into a single bucket. Only the
	// tabular report supports it; see ChartGranularity.
	GranularityAll Granularity = "all"
)

// AllKey is the bucket key of GranularityAll.
const AllKey = "all"

const monthLayout = "2006-01"

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityAll:
		return true
	}

	return false
}

// ParseGranularity parses a user-supplied granularity, defaulting to month when
// s is empty.
func ParseGranularity(s string) (Granularity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GranularityMonth, nil
	}

	g := Granularity(s)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}

	return g, nil
}

// ChartGranularity maps a requested granularity onto one the chart report can
// plot. The chart has no single-bucket mode, so "all" is an alias for month and
// months are never merged together.
func ChartGranularity(g Granularity) Granularity {
	if g == GranularityAll {
		return GranularityMonth
	}

	return g
}

// BucketKey returns the grouping key of t for g. Keys of day, week and month
// granularity sort lexicographically in chronological order.
//
// Weeks start on Monday: the key is the date of the Monday of t's ISO week.
func BucketKey(t time.Time, g Granularity) string {
	t = t.UTC()

	switch g {
	case GranularityDay:
		return t.Format(time.DateOnly)
	case GranularityWeek:
		day := truncateDay(t)
		offset := (int(day.Weekday()) + 6) % 7 // Monday 0 ... Sunday 6

		return day.AddDate(0, 0, -offset).Format(time.DateOnly)
	case GranularityMonth:
		return t.Format(monthLayout)
	}

	return AllKey
}
