package report

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// Totals holds the summed magnitudes of one bucket.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Aggregation is the result of folding transactions into buckets.
type Aggregation struct {
	Granularity Granularity
	// Balance is the signed sum of every folded transaction, computed
	// independently of the buckets.
	Balance decimal.Decimal

	buckets map[string]*Totals
}

// Len returns the number of buckets.
func (a *Aggregation) Len() int {
	return len(a.buckets)
}

// Keys returns the bucket keys in ascending order.
func (a *Aggregation) Keys() []string {
	keys := make([]string, 0, len(a.buckets))
	for k := range a.buckets {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// Bucket returns the totals for key, or zero totals if the key is unknown.
func (a *Aggregation) Bucket(key string) Totals {
	if b, ok := a.buckets[key]; ok {
		return *b
	}

	return Totals{}
}

// Aggregate folds txs into per-bucket income/expense totals for g and
// accumulates the overall balance. Input order does not matter. A transaction
// with a type other than income or expense fails the whole aggregation.
func Aggregate(txs []*transaction.Transaction, g Granularity) (*Aggregation, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
	}

	agg := &Aggregation{
		Granularity: g,
		Balance:     decimal.Zero,
		buckets:     make(map[string]*Totals),
	}

	for _, tx := range txs {
		if !tx.Type.Valid() {
			return nil, fmt.Errorf("%w: %q on transaction %s", ErrUnknownTransactionType, tx.Type, tx.ID)
		}

		key := BucketKey(tx.Date, g)

		b, ok := agg.buckets[key]
		if !ok {
			b = &Totals{Income: decimal.Zero, Expense: decimal.Zero}
			agg.buckets[key] = b
		}

		switch tx.Type {
		case transaction.TypeIncome:
			b.Income = b.Income.Add(tx.Amount)
		case transaction.TypeExpense:
			b.Expense = b.Expense.Add(tx.Amount)
		}

		agg.Balance = agg.Balance.Add(tx.Signed())
	}

	return agg, nil
}
