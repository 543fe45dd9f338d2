package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stoneyard/shipment-bot/internal/models"
)

// Store is a testify mock of store.Store.
type Store struct {
	mock.Mock
}

func (m *Store) Append(ctx context.Context, rec models.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *Store) FetchAll(ctx context.Context) ([]models.ReportRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.ReportRow)
	return rows, args.Error(1)
}

func (m *Store) FetchRange(ctx context.Context, start, end time.Time) ([]models.ReportRow, error) {
	args := m.Called(ctx, start, end)
	rows, _ := args.Get(0).([]models.ReportRow)
	return rows, args.Error(1)
}
