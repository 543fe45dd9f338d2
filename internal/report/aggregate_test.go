package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoneyard/shipment-bot/internal/models"
)

func row(ts, qty, pallets, loader string) models.ReportRow {
	return models.ReportRow{
		CreatedAt:     ts,
		Date:          ts[:10],
		StoneTypeSize: "Габбро",
		Quantity:      qty,
		PalletCount:   pallets,
		Destination:   "Тошкент",
		LoaderName:    loader,
	}
}

func TestSummarize(t *testing.T) {
	rows := []models.ReportRow{
		row("2026-10-18T09:00:00", "10.5 m", "3", "Азиз"),
		row("2026-10-18T15:30:00", "7", "5", "Бекзод"),
		row("2026-10-17T11:00:00", "100", "40", "Олим"),
	}

	sum := Summarize("2026-10-18", rows)
	assert.False(t, sum.Empty())
	assert.Equal(t, 2, sum.OrderCount)
	assert.Equal(t, 8, sum.PalletTotal)
	assert.InDelta(t, 17.5, sum.QuantityTotal, 1e-9)
	assert.Equal(t, []string{"Азиз", "Бекзод"}, sum.Loaders)
	require.Len(t, sum.Preview, 2)
	assert.Zero(t, sum.Omitted)
}

func TestSummarize_NoRecords(t *testing.T) {
	assert.True(t, Summarize("2026-10-18", nil).Empty())

	rows := []models.ReportRow{row("2026-10-17T11:00:00", "1", "1", "x")}
	sum := Summarize("2026-10-18", rows)
	assert.True(t, sum.Empty())
	assert.Empty(t, sum.Preview)
	assert.Empty(t, sum.Loaders)
}

func TestSummarize_MalformedNumbers(t *testing.T) {
	rows := []models.ReportRow{
		row("2026-10-18T09:00:00", "около двадцати", "много", ""),
		row("2026-10-18T10:00:00", "12,25 м²", " 4 ", "  "),
		row("2026-10-18T11:00:00", "", "", "Азиз"),
	}
	sum := Summarize("2026-10-18", rows)
	assert.Equal(t, 3, sum.OrderCount)
	assert.Equal(t, 4, sum.PalletTotal)
	assert.InDelta(t, 12.25, sum.QuantityTotal, 1e-9)
	assert.Equal(t, []string{"Азиз"}, sum.Loaders)
}

func TestSummarize_PreviewBounded(t *testing.T) {
	var rows []models.ReportRow
	for i := 0; i < 13; i++ {
		rows = append(rows, row("2026-10-18T08:00:00", "1", "1", "a"))
	}
	sum := Summarize("2026-10-18", rows)
	assert.Equal(t, 13, sum.OrderCount)
	assert.Len(t, sum.Preview, PreviewLimit)
	assert.Equal(t, 3, sum.Omitted)
}

func TestSummarize_LoadersCaseSensitive(t *testing.T) {
	rows := []models.ReportRow{
		row("2026-10-18T08:00:00", "1", "1", "азиз"),
		row("2026-10-18T08:00:00", "1", "1", "Азиз"),
		row("2026-10-18T08:00:00", "1", "1", "Азиз"),
	}
	assert.Equal(t, []string{"Азиз", "азиз"}, Summarize("2026-10-18", rows).Loaders)
}

func TestMatchesDate(t *testing.T) {
	assert.True(t, MatchesDate("2026-10-18T09:00:00", "2026-10-18"))
	assert.True(t, MatchesDate(" 2026-10-18T09:00:00", "2026-10-18"))
	assert.False(t, MatchesDate("18.10.2026 09:00", "2026-10-18"))
	assert.False(t, MatchesDate("2026-10-18T09:00:00", ""))
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]float64{
		"10.5 m":     10.5,
		"7":          7,
		"23,5 м²":    23.5,
		"м² 14":      14,
		"3x2":        3,
		"":           0,
		"нет данных": 0,
	}
	for in, want := range cases {
		assert.InDelta(t, want, ParseQuantity(in), 1e-9, in)
	}
}

func TestSummarizeRange(t *testing.T) {
	loc := time.FixedZone("UZT", 5*3600)
	rows := []models.ReportRow{
		row("2026-09-19T00:00:00", "1", "1", "a"),
		row("2026-10-18T23:59:59", "1", "1", "a"),
		row("2026-10-19T00:00:00", "1", "1", "a"),
		{CreatedAt: "garbage"},
	}
	start := time.Date(2026, 9, 19, 0, 0, 0, 0, loc)
	end := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)

	got := SummarizeRange(start, end, rows)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-09-19T00:00:00", got[0].CreatedAt)
	assert.Equal(t, "2026-10-18T23:59:59", got[1].CreatedAt)
}
