package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"0":         "0,00",
		"80000":     "80.000,00",
		"1234567.5": "1.234.567,50",
		"-12.345":   "-12,35",
		"99999.999": "100.000,00",
		"0.1":       "0,10",
		"-1000000":  "-1.000.000,00",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)))
		})
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, 1, 31, 22, 0, 0, 0, time.FixedZone("COT", -5*3600))
	assert.Equal(t, "2026-02-01", FormatDate(ts))
}
