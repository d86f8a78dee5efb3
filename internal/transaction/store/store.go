package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const columns = `id, user_id, amount, type, description, date, created_at, updated_at, deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*transaction.Transaction, error) {
	var (
		tx  transaction.Transaction
		typ string
	)

	err := s.Scan(&tx.ID, &tx.UserID, &tx.Amount, &typ, &tx.Description, &tx.Date,
		&tx.CreatedAt, &tx.UpdatedAt, &tx.DeletedAt)
	if err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typ)
	tx.Date = tx.Date.UTC()

	return &tx, nil
}

// where collects AND-ed conditions over live rows. Each condition holds a
// single %d verb for its placeholder number.
type where struct {
	conds []string
	args  []any
}

func (w *where) and(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) String() string {
	return strings.Join(append([]string{"deleted_at IS NULL"}, w.conds...), " AND ")
}

func selectRows(ctx context.Context, q querier, w *where) ([]*transaction.Transaction, error) {
	query := "SELECT " + columns + " FROM transactions WHERE " + w.String() + " ORDER BY date ASC, created_at ASC"

	rows, err := q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

func insertRow(ctx context.Context, q querier, tx *transaction.Transaction) error {
	const query = `
		INSERT INTO transactions (user_id, amount, type, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`

	return q.QueryRowContext(ctx, query, tx.UserID, tx.Amount, tx.Type, tx.Description, tx.Date).
		Scan(&tx.ID, &tx.CreatedAt)
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if err := insertRow(ctx, s.db, tx); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	w := &where{}
	w.and("id = $%d", id)

	tx, err := scanRow(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM transactions WHERE "+w.String(), w.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	w := &where{}

	if filter.UserID != nil {
		w.and("user_id = $%d", *filter.UserID)
	}

	if filter.StartDate != nil {
		w.and("date >= $%d", *filter.StartDate)
	}

	if filter.EndBefore != nil {
		w.and("date < $%d", *filter.EndBefore)
	}

	txs, err := selectRows(ctx, s.db, w)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	const query = `
		UPDATE transactions
		SET amount = $2, type = $3, description = $4, date = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := s.db.QueryRowContext(ctx, query, tx.ID, tx.Amount, tx.Type, tx.Description, tx.Date).Scan(&tx.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return transaction.ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

// DeleteTransaction soft-deletes; the row stays for audit but drops out of
// every read.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	} else if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

// importLockKey maps an owner to a pg advisory lock id. The window is left out
// so overlapping uploads with different date ranges still serialize.
func importLockKey(userID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(userID[:])

	return int64(h.Sum64())
}

type importTx struct {
	*sql.Tx
	userID   uuid.UUID
	from, to time.Time
}

// BeginImport opens a database transaction holding the user's advisory import
// lock, so two overlapping uploads cannot both pass the duplicate check. The
// dates only bound the rows FindDuplicates reads.
func (s *Store) BeginImport(ctx context.Context, userID uuid.UUID, minDate, maxDate time.Time) (transaction.ImportTx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", importLockKey(userID)); err != nil {
		_ = sqlTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	day := func(t time.Time) time.Time { return t.UTC().Truncate(24 * time.Hour) }

	return &importTx{
		Tx:     sqlTx,
		userID: userID,
		from:   day(minDate),
		to:     day(maxDate).AddDate(0, 0, 1),
	}, nil
}

// FindDuplicates returns the stored rows of the locked window that share a
// DuplicateKey with any of params.
func (itx *importTx) FindDuplicates(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	incoming := make(map[transaction.DuplicateKey]bool, len(params))
	for _, p := range params {
		incoming[transaction.KeyOf(p.UserID, p.Date, p.Amount, p.Type, p.Description)] = true
	}

	w := &where{}
	w.and("user_id = $%d", itx.userID)
	w.and("date >= $%d", itx.from)
	w.and("date < $%d", itx.to)

	stored, err := selectRows(ctx, itx.Tx, w)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}

	var dups []*transaction.Transaction

	for _, tx := range stored {
		if incoming[transaction.KeyOf(tx.UserID, tx.Date, tx.Amount, tx.Type, tx.Description)] {
			dups = append(dups, tx)
		}
	}

	return dups, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for i, tx := range txs {
		if err := insertRow(ctx, itx.Tx, tx); err != nil {
			return fmt.Errorf("creating transaction %d: %w", i+1, err)
		}
	}

	return nil
}
