// Package importer turns uploaded CSV statements into transactions.
package importer

import (
	"errors"
	"io"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

var (
	ErrUnknownFormat = errors.New("no known CSV layout matched the file")
	ErrInvalidRow    = errors.New("invalid row")
	ErrNoRows        = errors.New("file contains no transactions")
)

// Parser reads a CSV file into transaction params. The returned params carry
// no owner; the caller assigns it.
type Parser interface {
	Parse(r io.Reader) ([]transaction.CreateParams, error)
}
