package view

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dbTimeout = 5 * time.Second

var printer = message.NewPrinter(language.Spanish)

// FormatAmount renders d with Spanish digit grouping and two decimals,
// e.g. 1234567.5 -> "1.234.567,50".
func FormatAmount(d decimal.Decimal) string {
	abs := d.Abs().Round(2)
	_, frac, _ := strings.Cut(abs.StringFixed(2), ".")

	out := printer.Sprintf("%d", abs.IntPart()) + "," + frac
	if d.IsNegative() {
		return "-" + out
	}

	return out
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
