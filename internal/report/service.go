package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// DefaultCurrency is the currency of a single-currency deployment.
const DefaultCurrency = "COP"

// Source supplies the transactions of a window. *transaction.Service satisfies it.
//
//go:generate mockgen -source=service.go -destination=source_mock.go -package=report
type Source interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// Service builds reports from a transaction Source. It keeps no state between
// calls; the clock only feeds DefaultWindow.
type Service struct {
	source   Source
	currency string
	now      func() time.Time
}

type Option func(*Service)

// WithCurrency overrides DefaultCurrency.
func WithCurrency(currency string) Option {
	return func(s *Service) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source:   source,
		currency: DefaultCurrency,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// TabularRequest asks for a tabular report. Nil bounds leave that side open;
// a nil UserID covers every user.
type TabularRequest struct {
	From        *time.Time
	To          *time.Time
	Granularity Granularity
	UserID      *uuid.UUID
}

// ChartRequest asks for a chart report. Both bounds are required.
type ChartRequest struct {
	From        *time.Time
	To          *time.Time
	Granularity Granularity
	UserID      *uuid.UUID
}

// DefaultWindow returns the default chart window for the service clock.
func (s *Service) DefaultWindow() (time.Time, time.Time) {
	return DefaultWindow(s.now())
}

// BuildTabular validates the request, fetches the window and returns the
// tabular report. Granularity "all" yields a single bucket.
func (s *Service) BuildTabular(ctx context.Context, req TabularRequest) (*TabularReport, error) {
	if !req.Granularity.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, req.Granularity)
	}

	rng, err := NormalizeRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	agg, err := s.aggregate(ctx, rng, req.Granularity, req.UserID)
	if err != nil {
		return nil, err
	}

	r := NewTabularReport(agg, rng, s.currency)

	slog.DebugContext(ctx, "built tabular report",
		"granularity", r.Granularity, "buckets", len(r.Series), "from", FormatInstant(r.From), "to", FormatInstant(r.To))

	return r, nil
}

// BuildChart validates the request, fetches the window and returns the chart
// report. Granularity "all" is plotted per month.
func (s *Service) BuildChart(ctx context.Context, req ChartRequest) (*ChartReport, error) {
	if !req.Granularity.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, req.Granularity)
	}

	if req.From == nil || req.To == nil {
		return nil, ErrMissingBounds
	}

	rng, err := NormalizeRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	agg, err := s.aggregate(ctx, rng, ChartGranularity(req.Granularity), req.UserID)
	if err != nil {
		return nil, err
	}

	c, err := NewChartReport(agg, rng)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "built chart report",
		"granularity", c.Meta.Granularity, "buckets", len(c.Labels))

	return c, nil
}

func (s *Service) aggregate(ctx context.Context, rng Range, g Granularity, userID *uuid.UUID) (*Aggregation, error) {
	txs, err := s.source.List(ctx, transaction.ListFilter{
		UserID:    userID,
		StartDate: rng.From,
		EndBefore: rng.Until,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}

	agg, err := Aggregate(txs, g)
	if err != nil {
		return nil, fmt.Errorf("aggregating transactions: %w", err)
	}

	return agg, nil
}
