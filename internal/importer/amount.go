package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

var amountNoise = strings.NewReplacer("$", "", "COP", "", " ", "", "\u00a0", "")

// parseAmount reads a possibly signed amount written with the given
// separators. Currency symbols and grouping spaces are ignored.
func parseAmount(s string, style numberStyle) (decimal.Decimal, error) {
	clean := amountNoise.Replace(s)

	switch style {
	case decimalComma:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case decimalPoint:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}
