package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/http/render"
	"github.com/MrJamesThe3rd/ledger/internal/report"
)

// Builder is the part of *report.Service the handler needs.
type Builder interface {
	BuildTabular(ctx context.Context, req report.TabularRequest) (*report.TabularReport, error)
	BuildChart(ctx context.Context, req report.ChartRequest) (*report.ChartReport, error)
	DefaultWindow() (time.Time, time.Time)
}

type Handler struct {
	svc Builder
}

func NewHandler(svc Builder) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/summary.csv", h.summaryCSV)
	r.Get("/chart", h.chart)
}

type query struct {
	from        *time.Time
	to          *time.Time
	granularity report.Granularity
	userID      *uuid.UUID
}

func parseQuery(q url.Values) (query, error) {
	var (
		out query
		err error
	)

	if out.from, err = report.ParseBound(q.Get("from")); err != nil {
		return out, err
	}

	if out.to, err = report.ParseBound(q.Get("to")); err != nil {
		return out, err
	}

	if out.granularity, err = report.ParseGranularity(q.Get("granularity")); err != nil {
		return out, err
	}

	if s := q.Get("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return out, fmt.Errorf("invalid user_id: %w", err)
		}

		out.userID = &id
	}

	return out, nil
}

// writeError answers caller mistakes with 400 and anything else with 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if report.IsInputError(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	render.InternalError(w, r, "failed to build report", err)
}

func (h *Handler) buildTabular(w http.ResponseWriter, r *http.Request) (*report.TabularReport, bool) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	rep, err := h.svc.BuildTabular(r.Context(), report.TabularRequest{
		From:        q.from,
		To:          q.to,
		Granularity: q.granularity,
		UserID:      q.userID,
	})
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}

	return rep, true
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildTabular(w, r)
	if !ok {
		return
	}

	render.JSON(w, http.StatusOK, toTabularResponse(rep))
}

func (h *Handler) summaryCSV(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildTabular(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", report.ContentTypeCSV)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvFilename(rep)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(report.EncodeCSV(rep))); err != nil {
		slog.ErrorContext(r.Context(), "failed to write csv", "error", err)
	}
}

// csvFilename names an export after its granularity and logical bounds, with
// "start" and "end" standing in for open sides.
func csvFilename(rep *report.TabularReport) string {
	from, to := "start", "end"

	if rep.From != nil {
		from = rep.From.UTC().Format(time.DateOnly)
	}

	if rep.To != nil {
		to = rep.To.UTC().Format(time.DateOnly)
	}

	return fmt.Sprintf("report-%s-%s_%s.csv", rep.Granularity, from, to)
}

// chart falls back to the service's default window when both bounds are
// absent. A single missing bound is rejected by the service.
func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if q.from == nil && q.to == nil {
		from, to := h.svc.DefaultWindow()
		q.from, q.to = &from, &to
	}

	c, err := h.svc.BuildChart(r.Context(), report.ChartRequest{
		From:        q.from,
		To:          q.to,
		Granularity: q.granularity,
		UserID:      q.userID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toChartResponse(c))
}
