package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stoneyard/shipment-bot/internal/models"
	"github.com/stoneyard/shipment-bot/internal/store"
)

// RangeResult holds the rows of a range report.
type RangeResult struct {
	Start       time.Time
	End         time.Time
	Unavailable bool
	Rows        []models.ReportRow
}

// Reporter builds reports from a store.
type Reporter struct {
	store  store.Store
	loc    *time.Location
	logger *zap.Logger
}

// NewReporter creates a Reporter. Dates are resolved in loc.
func NewReporter(st store.Store, loc *time.Location, logger *zap.Logger) *Reporter {
	if loc == nil {
		loc = time.Local
	}
	return &Reporter{store: st, loc: loc, logger: logger.Named("report")}
}

// Daily summarizes the shipments of the given day. Store failures yield an
// unavailable summary.
func (r *Reporter) Daily(ctx context.Context, day time.Time) Summary {
	date := day.In(r.loc).Format(models.DateLayout)
	rows, err := r.store.FetchAll(ctx)
	if err != nil {
		r.logger.Error("failed to fetch rows for daily report", zap.String("date", date), zap.Error(err))
		return Summary{Date: date, Unavailable: true}
	}
	return Summarize(date, rows)
}

// DaysAgo returns midnight n days before now in the reporter's zone.
func (r *Reporter) DaysAgo(now time.Time, n int) time.Time {
	local := now.In(r.loc)
	return time.Date(local.Year(), local.Month(), local.Day()-n, 0, 0, 0, 0, r.loc)
}

// Range returns the rows created in [start, end). Bounds are moved into the
// reporter's zone first, since stored timestamps carry no offset. The store's
// selection is re-checked against the parsed timestamps.
func (r *Reporter) Range(ctx context.Context, start, end time.Time) RangeResult {
	start, end = start.In(r.loc), end.In(r.loc)
	res := RangeResult{Start: start, End: end}
	rows, err := r.store.FetchRange(ctx, start, end)
	if err != nil {
		r.logger.Error("failed to fetch rows for range report",
			zap.Time("start", start), zap.Time("end", end), zap.Error(err))
		res.Unavailable = true
		return res
	}
	res.Rows = SummarizeRange(start, end, rows)
	return res
}
