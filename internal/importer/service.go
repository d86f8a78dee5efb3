package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=batcher_mock.go -package=importer
type Batcher interface {
	ImportBatch(ctx context.Context, params []transaction.CreateParams) (*transaction.ImportResult, error)
	CreateBatch(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error)
}

type Service struct {
	parser Parser
	txs    Batcher
}

type Option func(*Service)

// WithParser replaces the default CSV layout detection.
func WithParser(p Parser) Option {
	return func(s *Service) {
		s.parser = p
	}
}

func NewService(txs Batcher, opts ...Option) *Service {
	s := &Service{
		parser: NewCSVParser(),
		txs:    txs,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Import parses r and stores its rows for owner. When any row matches an
// existing transaction nothing is stored and the result lists the conflicts.
func (s *Service) Import(ctx context.Context, owner uuid.UUID, r io.Reader) (*transaction.ImportResult, error) {
	params, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	result, err := s.txs.ImportBatch(ctx, assignOwner(owner, params))
	if err != nil {
		return nil, fmt.Errorf("import batch: %w", err)
	}

	return result, nil
}

// Confirm stores rows the caller has reviewed, skipping duplicate detection.
func (s *Service) Confirm(ctx context.Context, owner uuid.UUID, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	if len(params) == 0 {
		return nil, ErrNoRows
	}

	txs, err := s.txs.CreateBatch(ctx, assignOwner(owner, params))
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	return txs, nil
}

func assignOwner(owner uuid.UUID, params []transaction.CreateParams) []transaction.CreateParams {
	for i := range params {
		params[i].UserID = owner
	}

	return params
}
