package report

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stoneyard/shipment-bot/internal/models"
	"github.com/stoneyard/shipment-bot/internal/store"
)

// PreviewLimit bounds the rows listed in a daily summary.
const PreviewLimit = 10

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Summary is the daily aggregate over stored shipments.
type Summary struct {
	Date          string
	Unavailable   bool
	OrderCount    int
	PalletTotal   int
	QuantityTotal float64
	Loaders       []string
	Preview       []models.ReportRow
	Omitted       int
}

// Empty reports whether no shipment matched the date.
func (s Summary) Empty() bool {
	return !s.Unavailable && s.OrderCount == 0
}

// MatchesDate compares a stored timestamp against a YYYY-MM-DD key by string
// prefix. Timestamps in another layout never match.
func MatchesDate(createdAt, date string) bool {
	return date != "" && strings.HasPrefix(strings.TrimSpace(createdAt), date)
}

// Summarize aggregates the rows created on date. Unparseable numeric fields
// contribute zero.
func Summarize(date string, rows []models.ReportRow) Summary {
	sum := Summary{Date: date}
	loaders := make(map[string]struct{})

	for _, row := range rows {
		if !MatchesDate(row.CreatedAt, date) {
			continue
		}
		sum.OrderCount++
		sum.PalletTotal += parsePallets(row.PalletCount)
		sum.QuantityTotal += ParseQuantity(row.Quantity)
		if name := strings.TrimSpace(row.LoaderName); name != "" {
			loaders[name] = struct{}{}
		}
		if len(sum.Preview) < PreviewLimit {
			sum.Preview = append(sum.Preview, row)
		} else {
			sum.Omitted++
		}
	}

	for name := range loaders {
		sum.Loaders = append(sum.Loaders, name)
	}
	sort.Strings(sum.Loaders)
	return sum
}

// SummarizeRange returns the rows created in [start, end) without
// aggregation.
func SummarizeRange(start, end time.Time, rows []models.ReportRow) []models.ReportRow {
	var out []models.ReportRow
	for _, row := range rows {
		if store.InRange(row, start, end) {
			out = append(out, row)
		}
	}
	return out
}

// ParseQuantity extracts the first number of a quantity field. A comma is
// read as the decimal separator.
func ParseQuantity(s string) float64 {
	token := numberPattern.FindString(s)
	if token == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.Replace(token, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return v
}

func parsePallets(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
