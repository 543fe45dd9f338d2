package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/stoneyard/shipment-bot/internal/models"
)

// fakeSheets serves the handful of Sheets API calls the store makes.
type fakeSheets struct {
	mu        sync.Mutex
	titles    []string
	values    [][]interface{}
	added     []string
	cleared   int
	failReads bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
			f.titles = append(f.titles, rq.AddSheet.Properties.Title)
		}
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared++
		f.values = nil
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.values = append(f.values, body.Values...)
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		if f.failReads {
			http.Error(w, `{"error":{"code":503,"message":"backend error"}}`, http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]any{"values": f.values})
	case r.Method == http.MethodGet:
		var sheets []map[string]any
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		writeJSON(w, map[string]any{"sheets": sheets})
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T, fake *fakeSheets) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	st, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", Location: time.UTC}, zap.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return st
}

func record(id, ts string, pallets int) models.Record {
	at, _ := time.Parse(models.TimestampLayout, ts)
	return models.Record{
		OrderID:  id,
		Operator: "Bekzod",
		Shipment: models.Shipment{
			StoneTypeSize: "Габбро",
			Quantity:      "7",
			PalletCount:   &pallets,
			Destination:   "Тошкент",
			DriverPhone:   "+998901234567",
			PhotoRefs:     []string{"p1"},
			LoaderName:    "Азиз",
			CreatedAt:     at,
		},
	}
}

func TestNew_CreatesWorksheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Sheet1"}}
	newTestStore(t, fake)
	assert.Equal(t, []string{DefaultTitle}, fake.added)

	existing := &fakeSheets{titles: []string{DefaultTitle}}
	newTestStore(t, existing)
	assert.Empty(t, existing.added)
}

func TestAppend_WritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{titles: []string{DefaultTitle}}
	st := newTestStore(t, fake)

	require.NoError(t, st.Append(ctx, record("o-1", "2026-10-18T09:00:00", 3)))
	require.NoError(t, st.Append(ctx, record("o-2", "2026-10-19T09:00:00", 5)))

	require.Len(t, fake.values, 3)
	assert.Equal(t, "Timestamp", fake.values[0][0])
	assert.Equal(t, 1, fake.cleared)

	rows, err := st.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "o-1", rows[0].OrderID)
	assert.Equal(t, "3", rows[0].PalletCount)
	assert.Equal(t, "2026-10-19", rows[1].Date)
}

func TestFetchRange_SkipsBadTimestamps(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{titles: []string{DefaultTitle}}
	st := newTestStore(t, fake)

	require.NoError(t, st.Append(ctx, record("o-1", "2026-10-18T09:00:00", 3)))
	require.NoError(t, st.Append(ctx, record("o-2", "2026-10-20T09:00:00", 5)))
	fake.values = append(fake.values, []interface{}{"yesterday", "?", "o-3"})

	start := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	rows, err := st.FetchRange(ctx, start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "o-1", rows[0].OrderID)
}

func TestFetchAll_NoHeader(t *testing.T) {
	fake := &fakeSheets{titles: []string{DefaultTitle}, values: [][]interface{}{{"junk"}}}
	st := newTestStore(t, fake)

	rows, err := st.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadFailure(t *testing.T) {
	fake := &fakeSheets{titles: []string{DefaultTitle}, failReads: true}
	st := newTestStore(t, fake)

	_, err := st.FetchAll(context.Background())
	assert.Error(t, err)
	assert.Error(t, st.Append(context.Background(), record("o-1", "2026-10-18T09:00:00", 1)))
}

func TestNew_RequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, zap.NewNop())
	assert.Error(t, err)
}
