package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// isoLayout matches the millisecond ISO 8601 form browsers produce for dates.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatInstant renders t as a UTC ISO 8601 string, or "" when t is nil.
func FormatInstant(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.UTC().Format(isoLayout)
}

// Bucket is one period of a tabular report.
type Bucket struct {
	Period  string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// TabularReport is the period-by-period report with an overall balance.
// From and To are nil when the corresponding side was unbounded.
type TabularReport struct {
	Balance     decimal.Decimal
	Currency    string
	From        *time.Time
	To          *time.Time
	Granularity Granularity
	Series      []Bucket
}

// NewTabularReport lays out agg as a tabular report. The series is sorted by
// bucket key so the output never depends on the order rows were fetched in.
func NewTabularReport(agg *Aggregation, rng Range, currency string) *TabularReport {
	keys := agg.Keys()

	series := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		b := agg.Bucket(k)
		series = append(series, Bucket{
			Period:  k,
			Income:  b.Income,
			Expense: b.Expense,
			Net:     b.Net(),
		})
	}

	return &TabularReport{
		Balance:     agg.Balance,
		Currency:    currency,
		From:        rng.From,
		To:          rng.To,
		Granularity: agg.Granularity,
		Series:      series,
	}
}

type ChartMeta struct {
	From        time.Time
	To          time.Time
	Granularity Granularity
}

// ChartSeries holds three arrays parallel to ChartReport.Labels.
type ChartSeries struct {
	Income  []decimal.Decimal
	Expense []decimal.Decimal
	Net     []decimal.Decimal
}

type ChartPoint struct {
	Label   string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

type ChartTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Dataset is a labelled copy of one series, shaped for chart libraries.
type Dataset struct {
	Key   string
	Label string
	Data  []decimal.Decimal
}

// ChartReport is the multi-series report used for visualization. Labels,
// every series array and Points have the same length and ascending key order.
type ChartReport struct {
	Meta     ChartMeta
	Labels   []string
	Series   ChartSeries
	Points   []ChartPoint
	Totals   ChartTotals
	Datasets []Dataset
}

const (
	DatasetIncome  = "income"
	DatasetExpense = "expense"
	DatasetNet     = "net"
)

var datasetLabels = map[string]string{
	DatasetIncome:  "Ingresos",
	DatasetExpense: "Gastos",
	DatasetNet:     "Neto",
}

// NewChartReport lays out agg as a chart report over rng, which must have
// both bounds.
func NewChartReport(agg *Aggregation, rng Range) (*ChartReport, error) {
	if !rng.Bounded() {
		return nil, ErrMissingBounds
	}

	keys := agg.Keys()
	n := len(keys)

	c := &ChartReport{
		Meta: ChartMeta{
			From:        *rng.From,
			To:          *rng.To,
			Granularity: agg.Granularity,
		},
		Labels: keys,
		Series: ChartSeries{
			Income:  make([]decimal.Decimal, 0, n),
			Expense: make([]decimal.Decimal, 0, n),
			Net:     make([]decimal.Decimal, 0, n),
		},
		Points: make([]ChartPoint, 0, n),
	}

	totalIncome, totalExpense := decimal.Zero, decimal.Zero

	for _, k := range keys {
		b := agg.Bucket(k)
		net := b.Net()

		c.Series.Income = append(c.Series.Income, b.Income)
		c.Series.Expense = append(c.Series.Expense, b.Expense)
		c.Series.Net = append(c.Series.Net, net)
		c.Points = append(c.Points, ChartPoint{Label: k, Income: b.Income, Expense: b.Expense, Net: net})

		totalIncome = totalIncome.Add(b.Income)
		totalExpense = totalExpense.Add(b.Expense)
	}

	c.Totals = ChartTotals{
		Income:  totalIncome,
		Expense: totalExpense,
		Net:     totalIncome.Sub(totalExpense),
	}

	c.Datasets = []Dataset{
		{Key: DatasetIncome, Label: datasetLabels[DatasetIncome], Data: c.Series.Income},
		{Key: DatasetExpense, Label: datasetLabels[DatasetExpense], Data: c.Series.Expense},
		{Key: DatasetNet, Label: datasetLabels[DatasetNet], Data: c.Series.Net},
	}

	return c, nil
}
