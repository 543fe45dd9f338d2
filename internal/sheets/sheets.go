package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/stoneyard/shipment-bot/internal/models"
	"github.com/stoneyard/shipment-bot/internal/store"
)

// DefaultTitle is the worksheet shipments are written to.
const DefaultTitle = "Otgruzka"

// Config locates the spreadsheet.
type Config struct {
	SpreadsheetID   string
	Title           string
	CredentialsJSON string
	Location        *time.Location
}

// Store keeps shipments in one worksheet of a Google spreadsheet, header row
// first.
type Store struct {
	svc           *gsheets.Service
	spreadsheetID string
	title         string
	loc           *time.Location
	logger        *zap.Logger
}

var _ store.Store = (*Store)(nil)

// New connects to the spreadsheet and creates the worksheet when missing.
// Extra client options are appended after the credentials.
func New(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		clientOpts = append(clientOpts,
			option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
			option.WithScopes(gsheets.SpreadsheetsScope),
		)
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	s := &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		title:         cfg.Title,
		loc:           cfg.Location,
		logger:        logger.Named("sheets"),
	}
	if err := s.ensureWorksheet(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureWorksheet(ctx context.Context) error {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.title {
			return nil
		}
	}

	s.logger.Info("creating worksheet", zap.String("title", s.title))
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title:          s.title,
					GridProperties: &gsheets.GridProperties{RowCount: 1000, ColumnCount: int64(len(models.Columns))},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create worksheet %s: %w", s.title, err)
	}
	return nil
}

func (s *Store) dataRange() string {
	return fmt.Sprintf("%s!A:L", s.title)
}

// Append writes one row, rewriting the header first when it is missing.
func (s *Store) Append(ctx context.Context, rec models.Record) error {
	values, err := s.values(ctx)
	if err != nil {
		return err
	}
	if !hasHeader(values) {
		s.logger.Warn("header row missing, resetting worksheet", zap.String("title", s.title))
		if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, s.dataRange(), &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to clear worksheet: %w", err)
		}
		if err := s.appendRow(ctx, models.Columns); err != nil {
			return err
		}
	}
	if err := s.appendRow(ctx, rec.Values()); err != nil {
		return fmt.Errorf("failed to append shipment %s: %w", rec.OrderID, err)
	}
	return nil
}

func (s *Store) appendRow(ctx context.Context, row []string) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.dataRange(), &gsheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// FetchAll returns every data row below the header.
func (s *Store) FetchAll(ctx context.Context) ([]models.ReportRow, error) {
	values, err := s.values(ctx)
	if err != nil {
		return nil, err
	}
	if !hasHeader(values) {
		return nil, nil
	}
	rows := make([]models.ReportRow, 0, len(values)-1)
	for _, v := range values[1:] {
		rows = append(rows, models.RowFromValues(v))
	}
	return rows, nil
}

// FetchRange returns rows created in [start, end). Rows whose timestamp does
// not parse are skipped.
func (s *Store) FetchRange(ctx context.Context, start, end time.Time) ([]models.ReportRow, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.ReportRow
	for _, r := range all {
		if store.InRange(r, start.In(s.loc), end.In(s.loc)) {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (s *Store) values(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", s.title, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out, nil
}

func hasHeader(values [][]string) bool {
	return len(values) > 0 && len(values[0]) > 0 && values[0][0] == models.Columns[0]
}
