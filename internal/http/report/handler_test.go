package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	httpreport "github.com/MrJamesThe3rd/ledger/internal/http/report"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

func fixture() []*transaction.Transaction {
	at := func(m time.Month, d, h int) time.Time { return time.Date(2026, m, d, h, 0, 0, 0, time.UTC) }

	return []*transaction.Transaction{
		{ID: uuid.New(), Amount: decimal.NewFromInt(100000), Type: transaction.TypeIncome, Date: at(time.January, 31, 10)},
		{ID: uuid.New(), Amount: decimal.NewFromInt(50000), Type: transaction.TypeExpense, Date: at(time.January, 31, 14)},
		{ID: uuid.New(), Amount: decimal.NewFromInt(30000), Type: transaction.TypeIncome, Date: at(time.February, 1, 9)},
	}
}

func newRouter(t *testing.T, opts ...report.Option) (http.Handler, *report.MockSource) {
	t.Helper()

	ctrl := gomock.NewController(t)
	source := report.NewMockSource(ctrl)

	r := chi.NewRouter()
	r.Route("/reports", httpreport.NewHandler(report.NewService(source, opts...)).Routes)

	return r, source
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestHandler_Summary(t *testing.T) {
	h, source := newRouter(t)
	source.EXPECT().List(gomock.Any(), gomock.Any()).Return(fixture(), nil)

	rec := do(t, h, "/reports/summary?from=2026-01-01&to=2026-02-28&granularity=day")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "COP", body["currency"])
	assert.Equal(t, "day", body["granularity"])
	assert.Equal(t, "2026-01-01T00:00:00.000Z", body["from"])
	assert.Equal(t, "2026-02-28T00:00:00.000Z", body["to"])
	assert.InDelta(t, 80000, body["balance"], 0)

	series, ok := body["series"].([]any)
	require.True(t, ok)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-01-31", series[0].(map[string]any)["period"])
	assert.InDelta(t, 50000, series[0].(map[string]any)["net"], 0)
}

func TestHandler_Summary_Unbounded(t *testing.T) {
	h, source := newRouter(t)
	source.EXPECT().List(gomock.Any(), transaction.ListFilter{}).Return(nil, nil)

	rec := do(t, h, "/reports/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t,
		`{"balance":0,"currency":"COP","from":null,"to":null,"granularity":"month","series":[]}`,
		rec.Body.String())
}

func TestHandler_SummaryCSV(t *testing.T) {
	h, source := newRouter(t)
	source.EXPECT().List(gomock.Any(), gomock.Any()).Return(fixture(), nil)

	rec := do(t, h, "/reports/summary.csv?from=2026-01-01&to=2026-02-28&granularity=all")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report-all-2026-01-01_2026-02-28.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "balance,80000", lines[4])
	assert.Equal(t, "all,130000,50000,80000", lines[7])
}

func TestHandler_BadRequests(t *testing.T) {
	tests := map[string]string{
		"InvertedRange":      "/reports/summary?from=2026-03-01&to=2026-01-01",
		"BadDate":            "/reports/summary?from=last-week",
		"BadGranularity":     "/reports/summary.csv?granularity=quarter",
		"BadUserID":          "/reports/summary?user_id=42",
		"ChartOneSided":      "/reports/chart?from=2026-01-01",
		"ChartInvertedRange": "/reports/chart?from=2026-03-01&to=2026-01-01",
	}

	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			h, _ := newRouter(t)

			rec := do(t, h, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_SourceFailureIs500(t *testing.T) {
	h, source := newRouter(t)
	source.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("pq: connection reset"))

	rec := do(t, h, "/reports/summary")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHandler_Chart(t *testing.T) {
	h, source := newRouter(t)
	source.EXPECT().List(gomock.Any(), gomock.Any()).Return(fixture(), nil)

	rec := do(t, h, "/reports/chart?from=2026-01-01&to=2026-02-28&granularity=all")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Meta struct {
			From        string `json:"from"`
			To          string `json:"to"`
			Granularity string `json:"granularity"`
		} `json:"meta"`
		Labels []string `json:"labels"`
		Series struct {
			Income []json.Number `json:"income"`
			Net    []json.Number `json:"net"`
		} `json:"series"`
		Points []struct {
			Label string `json:"label"`
		} `json:"points"`
		Totals struct {
			Net json.Number `json:"net"`
		} `json:"totals"`
		Datasets []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		} `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "month", body.Meta.Granularity)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", body.Meta.From)
	assert.Equal(t, []string{"2026-01", "2026-02"}, body.Labels)
	assert.Equal(t, []json.Number{"100000", "30000"}, body.Series.Income)
	assert.Len(t, body.Points, 2)
	assert.Equal(t, json.Number("80000"), body.Totals.Net)
	require.Len(t, body.Datasets, 3)
	assert.Equal(t, "net", body.Datasets[2].Key)
}

func TestHandler_Chart_DefaultWindow(t *testing.T) {
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	h, source := newRouter(t, report.WithClock(func() time.Time { return now }))

	source.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
			require.NotNil(t, f.StartDate)
			require.NotNil(t, f.EndBefore)
			assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
			assert.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), *f.EndBefore)

			return nil, nil
		})

	rec := do(t, h, "/reports/chart")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"from":"2026-01-01T00:00:00.000Z"`)
	assert.Contains(t, rec.Body.String(), `"to":"2026-05-10T00:00:00.000Z"`)
}
