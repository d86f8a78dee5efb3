package report

import "errors"

// Caller input errors. The HTTP layer maps these to 400.
var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDateRange   = errors.New("invalid date range: from is after to")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrMissingBounds      = errors.New("chart report requires both from and to")
)

// ErrUnknownTransactionType marks a stored transaction whose type is neither
// income nor expense. It is a data-integrity fault, not a caller error.
var ErrUnknownTransactionType = errors.New("unknown transaction type")

// IsInputError reports whether err was caused by invalid caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidGranularity) ||
		errors.Is(err, ErrMissingBounds)
}
