package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledger/internal/report"
)

func TestBucketKey(t *testing.T) {
	type args struct {
		t time.Time
		g report.Granularity
	}

	type testCase struct {
		name string
		args args
		want string
	}

	tests := []testCase{
		{name: "Day", args: args{utc(2026, 1, 31, 10, 0), report.GranularityDay}, want: "2026-01-31"},
		{name: "DayLastInstant", args: args{time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), report.GranularityDay}, want: "2026-01-31"},
		{name: "DayUsesUTC", args: args{time.Date(2026, 1, 31, 21, 0, 0, 0, time.FixedZone("COT", -5*3600)), report.GranularityDay}, want: "2026-02-01"},
		{name: "Month", args: args{utc(2026, 2, 1, 9, 0), report.GranularityMonth}, want: "2026-02"},
		{name: "WeekMonday", args: args{utc(2026, 1, 26, 8, 0), report.GranularityWeek}, want: "2026-01-26"},
		{name: "WeekSaturday", args: args{utc(2026, 1, 31, 10, 0), report.GranularityWeek}, want: "2026-01-26"},
		{name: "WeekSunday", args: args{utc(2026, 2, 1, 9, 0), report.GranularityWeek}, want: "2026-01-26"},
		{name: "WeekCrossesYear", args: args{utc(2026, 1, 1, 12, 0), report.GranularityWeek}, want: "2025-12-29"},
		{name: "WeekLeapDay", args: args{utc(2028, 2, 29, 12, 0), report.GranularityWeek}, want: "2028-02-28"},
		{name: "All", args: args{utc(2026, 1, 31, 10, 0), report.GranularityAll}, want: report.AllKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, report.BucketKey(tt.args.t, tt.args.g))
		})
	}
}

func TestBucketKey_WeekAlwaysMonday(t *testing.T) {
	start := utc(2026, 1, 1, 0, 0)

	for i := range 400 {
		ts := start.AddDate(0, 0, i).Add(13 * time.Hour)
		key := report.BucketKey(ts, report.GranularityWeek)

		monday, err := time.Parse(time.DateOnly, key)
		require.NoError(t, err)
		assert.Equal(t, time.Monday, monday.Weekday(), key)
		assert.False(t, monday.After(ts), key)
		assert.Less(t, ts.Sub(monday), 7*24*time.Hour, key)
	}
}

func TestParseGranularity(t *testing.T) {
	tests := map[string]struct {
		want    report.Granularity
		wantErr bool
	}{
		"":        {want: report.GranularityMonth},
		"day":     {want: report.GranularityDay},
		"WEEK":    {want: report.GranularityWeek},
		" month ": {want: report.GranularityMonth},
		"all":     {want: report.GranularityAll},
		"year":    {wantErr: true},
	}

	for input, tt := range tests {
		t.Run(input, func(t *testing.T) {
			got, err := report.ParseGranularity(input)
			if tt.wantErr {
				assert.ErrorIs(t, err, report.ErrInvalidGranularity)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChartGranularity(t *testing.T) {
	assert.Equal(t, report.GranularityMonth, report.ChartGranularity(report.GranularityAll))
	assert.Equal(t, report.GranularityMonth, report.ChartGranularity(report.GranularityMonth))
	assert.Equal(t, report.GranularityWeek, report.ChartGranularity(report.GranularityWeek))
	assert.Equal(t, report.GranularityDay, report.ChartGranularity(report.GranularityDay))
}
