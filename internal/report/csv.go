package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ContentTypeCSV is the media type of EncodeCSV output.
const ContentTypeCSV = "text/csv; charset=utf-8"

var csvHeader = []string{"period", "income", "expense", "net"}

// EncodeCSV serializes r as a metadata block (currency, granularity, from, to,
// balance), a blank line, the header row and one row per bucket. Lines are
// separated by "\n" with no trailing newline. Unbounded dates are empty fields.
func EncodeCSV(r *TabularReport) string {
	lines := make([]string, 0, 7+len(r.Series))

	lines = append(lines,
		csvLine("currency", r.Currency),
		csvLine("granularity", string(r.Granularity)),
		csvLine("from", FormatInstant(r.From)),
		csvLine("to", FormatInstant(r.To)),
		csvLine("balance", formatAmount(r.Balance)),
		"",
		csvLine(csvHeader...),
	)

	for _, b := range r.Series {
		lines = append(lines, csvLine(
			b.Period,
			formatAmount(b.Income),
			formatAmount(b.Expense),
			formatAmount(b.Net),
		))
	}

	return strings.Join(lines, "\n")
}

func csvLine(fields ...string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = escapeCSVField(f)
	}

	return strings.Join(escaped, ",")
}

// escapeCSVField quotes f only when it holds a comma, quote or line break,
// doubling embedded quotes.
func escapeCSVField(f string) string {
	if !strings.ContainsAny(f, ",\"\r\n") {
		return f
	}

	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// formatAmount renders d in plain decimal notation, never scientific.
func formatAmount(d decimal.Decimal) string {
	return d.String()
}
