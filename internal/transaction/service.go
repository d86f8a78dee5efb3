package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	BeginImport(ctx context.Context, userID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

// ImportTx is a unit of work that serializes concurrent imports of the same
// user, whatever date windows they cover.
type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Type        Type
	Description string
	Date        time.Time
}

// ListFilter narrows a listing. StartDate is inclusive, EndBefore is exclusive.
// Nil fields are not applied.
type ListFilter struct {
	UserID    *uuid.UUID
	StartDate *time.Time
	EndBefore *time.Time
}

func validate(amount decimal.Decimal, typ Type) error {
	if !typ.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}

	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	return nil
}

func (p CreateParams) transaction() *Transaction {
	return &Transaction{
		UserID:      p.UserID,
		Amount:      p.Amount,
		Type:        p.Type,
		Description: p.Description,
		Date:        p.Date.UTC(),
	}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if err := validate(params.Amount, params.Type); err != nil {
		return nil, err
	}

	tx := params.transaction()
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Update(ctx context.Context, tx *Transaction) error {
	if err := validate(tx.Amount, tx.Type); err != nil {
		return err
	}

	tx.Date = tx.Date.UTC()

	return s.repo.UpdateTransaction(ctx, tx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, id)
}

// ImportResult holds either the created transactions or, when any incoming row
// matches an existing transaction, the split between new and conflicting rows.
// Nothing is written when conflicts are reported.
type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

// DuplicateKey identifies rows that are considered the same movement: same
// owner, calendar day, amount, type and description.
type DuplicateKey struct {
	UserID      uuid.UUID
	Date        string
	Amount      string
	Type        Type
	Description string
}

func KeyOf(userID uuid.UUID, date time.Time, amount decimal.Decimal, typ Type, description string) DuplicateKey {
	return DuplicateKey{
		UserID:      userID,
		Date:        date.UTC().Format(time.DateOnly),
		Amount:      amount.String(),
		Type:        typ,
		Description: description,
	}
}

func (p CreateParams) key() DuplicateKey {
	return KeyOf(p.UserID, p.Date, p.Amount, p.Type, p.Description)
}

func (t *Transaction) key() DuplicateKey {
	return KeyOf(t.UserID, t.Date, t.Amount, t.Type, t.Description)
}

// ImportBatch writes params in one unit of work unless any row repeats a
// stored transaction, in which case it only reports the split.
func (s *Service) ImportBatch(ctx context.Context, params []CreateParams) (*ImportResult, error) {
	result := &ImportResult{}

	err := s.inImport(ctx, params, func(itx ImportTx) (bool, error) {
		stored, err := itx.FindDuplicates(ctx, params)
		if err != nil {
			return false, fmt.Errorf("find duplicates: %w", err)
		}

		existing := make(map[DuplicateKey]*Transaction, len(stored))
		for _, tx := range stored {
			existing[tx.key()] = tx
		}

		for _, p := range params {
			if tx, ok := existing[p.key()]; ok {
				result.Conflicts = append(result.Conflicts, Conflict{Incoming: p, Existing: tx})
			} else {
				result.New = append(result.New, p)
			}
		}

		if len(result.Conflicts) > 0 {
			return false, nil
		}

		result.Imported, err = create(ctx, itx, result.New)
		result.New = nil

		return err == nil, err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CreateBatch writes every row without duplicate detection. It is used once
// the caller has reviewed the conflicts reported by ImportBatch.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Transaction, error) {
	var txs []*Transaction

	err := s.inImport(ctx, params, func(itx ImportTx) (bool, error) {
		var err error

		txs, err = create(ctx, itx, params)

		return err == nil, err
	})

	return txs, err
}

func create(ctx context.Context, itx ImportTx, params []CreateParams) ([]*Transaction, error) {
	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = p.transaction()
	}

	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	return txs, nil
}

// inImport validates params, opens the locked unit of work for their owner
// and date window and runs fn in it. fn reports whether to commit; anything
// else is rolled back. An empty batch never reaches the repository.
func (s *Service) inImport(ctx context.Context, params []CreateParams, fn func(ImportTx) (bool, error)) error {
	if len(params) == 0 {
		return nil
	}

	owner, from, to, err := window(params)
	if err != nil {
		return err
	}

	itx, err := s.repo.BeginImport(ctx, owner, from, to)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	commit, err := fn(itx)
	if err != nil || !commit {
		return err
	}

	if err := itx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	return nil
}

// window validates every row, normalizes dates to UTC in place and returns
// the single owner plus the earliest and latest date of the batch.
func window(params []CreateParams) (owner uuid.UUID, from, to time.Time, err error) {
	owner = params[0].UserID
	from = params[0].Date.UTC()
	to = from

	for i := range params {
		p := &params[i]

		if err := validate(p.Amount, p.Type); err != nil {
			return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("row %d: %w", i+1, err)
		}

		if p.UserID != owner {
			return uuid.Nil, time.Time{}, time.Time{}, ErrMixedOwners
		}

		p.Date = p.Date.UTC()
		if p.Date.Before(from) {
			from = p.Date
		}

		if p.Date.After(to) {
			to = p.Date
		}
	}

	return owner, from, to, nil
}
