package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/ledger/internal/encoding"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// CSVParser detects which known layout a file uses by matching header
// columns against profiles, then reads every data row below the header.
// Rows whose date cell does not parse (preambles, footers, totals) are skipped.
type CSVParser struct {
	profiles []Profile
}

func NewCSVParser() *CSVParser {
	return &CSVParser{profiles: profiles}
}

func (p *CSVParser) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	byComma := make(map[rune][][]string)

	for i := range p.profiles {
		prof := &p.profiles[i]

		rows, ok := byComma[prof.Comma]
		if !ok {
			rows, err = readRows(data, prof.Comma)
			if err != nil {
				return nil, err
			}

			byComma[prof.Comma] = rows
		}

		cols, headerIdx, found := findHeader(prof, rows)
		if !found {
			continue
		}

		txs, err := parseRows(prof, cols, rows[headerIdx+1:], headerIdx+1)
		if err != nil {
			return nil, err
		}

		if len(txs) == 0 {
			return nil, ErrNoRows
		}

		return txs, nil
	}

	return nil, ErrUnknownFormat
}

func readRows(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

// colIndex maps normalized column names to their index in the row.
type colIndex map[string]int

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// findHeader returns the first row containing every required column of p.
func findHeader(p *Profile, rows [][]string) (colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex, len(row))

		for i, cell := range row {
			if name := normalizeHeader(cell); name != "" {
				if _, dup := cols[name]; !dup {
					cols[name] = i
				}
			}
		}

		if matchesProfile(p, cols) {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts transactions from the rows below the header.
// firstRow is the 0-based index of rows[0] in the file, used in error messages.
func parseRows(p *Profile, cols colIndex, rows [][]string, firstRow int) ([]transaction.CreateParams, error) {
	var txs []transaction.CreateParams

	for i, row := range rows {
		rowNum := firstRow + i + 1

		date, ok := parseDate(p, cellValue(row, cols[p.DateCol]))
		if !ok {
			continue
		}

		desc := strings.Join(strings.Fields(cellValue(row, cols[p.DescCol])), " ")
		if desc == "" {
			return nil, fmt.Errorf("%w: row %d: missing description", ErrInvalidRow, rowNum)
		}

		amount, txType, ok, err := rowAmount(p, cols, row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidRow, rowNum, err)
		}

		if !ok {
			continue
		}

		txs = append(txs, transaction.CreateParams{
			Amount:      amount,
			Type:        txType,
			Description: desc,
			Date:        date,
		})
	}

	return txs, nil
}

// parseDate reads a civil date as UTC midnight. Timestamps keep their
// instant, converted to UTC.
func parseDate(p *Profile, s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range p.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// rowAmount returns ok=false for rows that carry no movement. Only the typed
// layout reports malformed values as errors; bank layouts skip them.
func rowAmount(p *Profile, cols colIndex, row []string) (decimal.Decimal, transaction.Type, bool, error) {
	switch p.AmountMode {
	case amountTyped:
		return typedAmount(p, row, cols[p.AmountCol], cols[p.TypeCol])
	case amountSigned:
		amount, typ, ok := signedAmount(p, row, cols[p.AmountCol])
		return amount, typ, ok, nil
	case amountSplit:
		amount, typ, ok := splitAmount(p, row, cols[p.DebitCol], cols[p.CreditCol])
		return amount, typ, ok, nil
	}

	return decimal.Zero, "", false, nil
}

var typeAliases = map[string]transaction.Type{
	"income":  transaction.TypeIncome,
	"ingreso": transaction.TypeIncome,
	"expense": transaction.TypeExpense,
	"gasto":   transaction.TypeExpense,
	"egreso":  transaction.TypeExpense,
}

func typedAmount(p *Profile, row []string, amountIdx, typeIdx int) (decimal.Decimal, transaction.Type, bool, error) {
	raw := cellValue(row, typeIdx)

	typ, ok := typeAliases[strings.ToLower(raw)]
	if !ok {
		return decimal.Zero, "", false, fmt.Errorf("%w %q", transaction.ErrInvalidType, raw)
	}

	s := cellValue(row, amountIdx)

	amount, err := parseAmount(s, p.Numbers)
	if err != nil {
		return decimal.Zero, "", false, fmt.Errorf("invalid amount %q", s)
	}

	if amount.IsNegative() {
		return decimal.Zero, "", false, transaction.ErrNegativeAmount
	}

	return amount, typ, true, nil
}

// signedAmount handles a single signed amount column.
func signedAmount(p *Profile, row []string, idx int) (decimal.Decimal, transaction.Type, bool) {
	amount, err := parseAmount(cellValue(row, idx), p.Numbers)
	if err != nil || amount.IsZero() {
		return decimal.Zero, "", false
	}

	if amount.IsNegative() {
		return amount.Neg(), transaction.TypeExpense, true
	}

	return amount, transaction.TypeIncome, true
}

// splitAmount handles separate debit and credit columns. Debit wins when both
// are filled.
func splitAmount(p *Profile, row []string, debitIdx, creditIdx int) (decimal.Decimal, transaction.Type, bool) {
	if amount, err := parseAmount(cellValue(row, debitIdx), p.Numbers); err == nil && !amount.IsZero() {
		return amount.Abs(), transaction.TypeExpense, true
	}

	if amount, err := parseAmount(cellValue(row, creditIdx), p.Numbers); err == nil && !amount.IsZero() {
		return amount.Abs(), transaction.TypeIncome, true
	}

	return decimal.Zero, "", false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
