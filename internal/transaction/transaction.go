package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("transaction not found")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrNegativeAmount = errors.New("transaction amount must not be negative")
	ErrMixedOwners    = errors.New("import batch spans more than one user")
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction represents a financial transaction owned by a single user.
// Amount is always a non-negative magnitude; Type carries the sign.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Type        Type
	Description string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}

// Signed returns the amount with the sign applied by its type.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}

	return t.Amount
}
