package importer

import "time"

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountTyped means an unsigned amount column plus a type column.
	amountTyped amountMode = iota
	// amountSigned means one signed column (e.g. "Valor" with "-12.500,00").
	amountSigned
	// amountSplit means separate debit and credit columns.
	amountSplit
)

// numberStyle is the decimal separator convention of a layout.
type numberStyle int

const (
	// decimalPoint reads "1,234,567.50".
	decimalPoint numberStyle = iota
	// decimalComma reads "1.234.567,50".
	decimalComma
)

// Profile describes the column layout of a supported CSV export.
// Column names are matched case-insensitively after trimming.
type Profile struct {
	Name        string
	Comma       rune
	DateLayouts []string
	Numbers     numberStyle

	DateCol    string
	DescCol    string
	AmountMode amountMode
	AmountCol  string // amountTyped and amountSigned
	TypeCol    string // amountTyped
	DebitCol   string // amountSplit
	CreditCol  string // amountSplit
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountTyped:
		cols = append(cols, p.AmountCol, p.TypeCol)
	case amountSigned:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles is tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:        "ledger",
		Comma:       ',',
		DateLayouts: []string{time.DateOnly, time.RFC3339},
		Numbers:     decimalPoint,
		DateCol:     "date",
		DescCol:     "description",
		AmountMode:  amountTyped,
		AmountCol:   "amount",
		TypeCol:     "type",
	},
	{
		Name:        "tarjeta",
		Comma:       ';',
		DateLayouts: []string{"02/01/2006", time.DateOnly},
		Numbers:     decimalComma,
		DateCol:     "fecha",
		DescCol:     "descripción",
		AmountMode:  amountSplit,
		DebitCol:    "débito",
		CreditCol:   "crédito",
	},
	{
		Name:        "extracto",
		Comma:       ';',
		DateLayouts: []string{"02/01/2006", time.DateOnly},
		Numbers:     decimalComma,
		DateCol:     "fecha",
		DescCol:     "descripción",
		AmountMode:  amountSigned,
		AmountCol:   "valor",
	},
}
