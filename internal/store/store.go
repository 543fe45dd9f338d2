package store

import (
	"context"
	"errors"
	"time"

	"github.com/stoneyard/shipment-bot/internal/models"
)

// ErrUnavailable is returned by every operation of an unconfigured store.
var ErrUnavailable = errors.New("shipment store unavailable")

// Store is the tabular backing store of committed shipments.
type Store interface {
	// Append writes one record. It either fully succeeds or returns an error.
	Append(ctx context.Context, rec models.Record) error
	// FetchAll returns every stored row.
	FetchAll(ctx context.Context) ([]models.ReportRow, error)
	// FetchRange returns rows created in [start, end).
	FetchRange(ctx context.Context, start, end time.Time) ([]models.ReportRow, error)
}

// Unavailable is the store used when no backend is configured.
type Unavailable struct{}

var _ Store = Unavailable{}

func (Unavailable) Append(context.Context, models.Record) error { return ErrUnavailable }

func (Unavailable) FetchAll(context.Context) ([]models.ReportRow, error) {
	return nil, ErrUnavailable
}

func (Unavailable) FetchRange(context.Context, time.Time, time.Time) ([]models.ReportRow, error) {
	return nil, ErrUnavailable
}

// InRange reports whether a row's timestamp falls in [start, end). Rows
// with an unparseable timestamp are outside every range.
func InRange(row models.ReportRow, start, end time.Time) bool {
	ts, err := row.Time(start.Location())
	if err != nil {
		return false
	}
	return !ts.Before(start) && ts.Before(end)
}
