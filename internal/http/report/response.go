package report

import (
	"encoding/json"
	"time"

	"github.com/MrJamesThe3rd/ledger/internal/http/render"
	"github.com/MrJamesThe3rd/ledger/internal/report"
)

type bucketResponse struct {
	Period  string      `json:"period"`
	Income  json.Number `json:"income"`
	Expense json.Number `json:"expense"`
	Net     json.Number `json:"net"`
}

// tabularResponse leaves from and to null when that side was unbounded.
type tabularResponse struct {
	Balance     json.Number        `json:"balance"`
	Currency    string             `json:"currency"`
	From        *string            `json:"from"`
	To          *string            `json:"to"`
	Granularity report.Granularity `json:"granularity"`
	Series      []bucketResponse   `json:"series"`
}

func isoOrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}

	return new(report.FormatInstant(t))
}

func toTabularResponse(r *report.TabularReport) tabularResponse {
	series := make([]bucketResponse, len(r.Series))
	for i, b := range r.Series {
		series[i] = bucketResponse{
			Period:  b.Period,
			Income:  render.Money(b.Income),
			Expense: render.Money(b.Expense),
			Net:     render.Money(b.Net),
		}
	}

	return tabularResponse{
		Balance:     render.Money(r.Balance),
		Currency:    r.Currency,
		From:        isoOrNil(r.From),
		To:          isoOrNil(r.To),
		Granularity: r.Granularity,
		Series:      series,
	}
}

type chartMetaResponse struct {
	From        string             `json:"from"`
	To          string             `json:"to"`
	Granularity report.Granularity `json:"granularity"`
}

type chartSeriesResponse struct {
	Income  []json.Number `json:"income"`
	Expense []json.Number `json:"expense"`
	Net     []json.Number `json:"net"`
}

type chartTotalsResponse struct {
	Income  json.Number `json:"income"`
	Expense json.Number `json:"expense"`
	Net     json.Number `json:"net"`
}

type pointResponse struct {
	Label   string      `json:"label"`
	Income  json.Number `json:"income"`
	Expense json.Number `json:"expense"`
	Net     json.Number `json:"net"`
}

type datasetResponse struct {
	Key   string        `json:"key"`
	Label string        `json:"label"`
	Data  []json.Number `json:"data"`
}

type chartResponse struct {
	Meta     chartMetaResponse   `json:"meta"`
	Labels   []string            `json:"labels"`
	Series   chartSeriesResponse `json:"series"`
	Points   []pointResponse     `json:"points"`
	Totals   chartTotalsResponse `json:"totals"`
	Datasets []datasetResponse   `json:"datasets"`
}

func toChartResponse(c *report.ChartReport) chartResponse {
	points := make([]pointResponse, len(c.Points))
	for i, p := range c.Points {
		points[i] = pointResponse{
			Label:   p.Label,
			Income:  render.Money(p.Income),
			Expense: render.Money(p.Expense),
			Net:     render.Money(p.Net),
		}
	}

	datasets := make([]datasetResponse, len(c.Datasets))
	for i, d := range c.Datasets {
		datasets[i] = datasetResponse{Key: d.Key, Label: d.Label, Data: render.MoneySlice(d.Data)}
	}

	return chartResponse{
		Meta: chartMetaResponse{
			From:        report.FormatInstant(&c.Meta.From),
			To:          report.FormatInstant(&c.Meta.To),
			Granularity: c.Meta.Granularity,
		},
		Labels: c.Labels,
		Series: chartSeriesResponse{
			Income:  render.MoneySlice(c.Series.Income),
			Expense: render.MoneySlice(c.Series.Expense),
			Net:     render.MoneySlice(c.Series.Net),
		},
		Points: points,
		Totals: chartTotalsResponse{
			Income:  render.Money(c.Totals.Income),
			Expense: render.Money(c.Totals.Expense),
			Net:     render.Money(c.Totals.Net),
		},
		Datasets: datasets,
	}
}
