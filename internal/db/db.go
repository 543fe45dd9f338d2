package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stoneyard/shipment-bot/internal/models"
	"github.com/stoneyard/shipment-bot/internal/store"
)

type DB struct {
	conn *sql.DB
	loc  *time.Location
}

var _ store.Store = (*DB)(nil)

// New opens the SQLite database at dbPath and applies the schema. loc is the
// zone created_at is stamped in; range bounds are converted to it.
func New(dbPath string, loc *time.Location) (*DB, error) {
	if loc == nil {
		loc = time.Local
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, loc: loc}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shipments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		sana TEXT NOT NULL,
		order_id TEXT NOT NULL UNIQUE,
		stone_type_size TEXT,
		quantity TEXT,
		pallet_count TEXT,
		destination TEXT,
		driver_phone TEXT,
		photo_refs TEXT,
		delivery_price TEXT,
		loader_name TEXT,
		operator TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_shipments_created_at ON shipments(created_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Append inserts a committed shipment.
func (db *DB) Append(ctx context.Context, rec models.Record) error {
	v := rec.Values()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO shipments (created_at, sana, order_id, stone_type_size, quantity, pallet_count,
		        destination, driver_phone, photo_refs, delivery_price, loader_name, operator)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8], v[9], v[10], v[11],
	)
	if err != nil {
		return fmt.Errorf("failed to insert shipment %s: %w", rec.OrderID, err)
	}
	return nil
}

// FetchAll returns every shipment in insertion order.
func (db *DB) FetchAll(ctx context.Context) ([]models.ReportRow, error) {
	return db.query(ctx, `SELECT `+columns+` FROM shipments ORDER BY id ASC`)
}

// FetchRange returns shipments created in [start, end). Timestamps are
// compared as text, which orders correctly for the fixed layout.
func (db *DB) FetchRange(ctx context.Context, start, end time.Time) ([]models.ReportRow, error) {
	return db.query(ctx,
		`SELECT `+columns+` FROM shipments WHERE created_at >= ? AND created_at < ? ORDER BY created_at ASC`,
		start.In(db.loc).Format(models.TimestampLayout), end.In(db.loc).Format(models.TimestampLayout),
	)
}

const columns = `created_at, sana, order_id, stone_type_size, quantity, pallet_count,
	destination, driver_phone, photo_refs, delivery_price, loader_name, operator`

func (db *DB) query(ctx context.Context, q string, args ...any) ([]models.ReportRow, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReportRow
	for rows.Next() {
		var r models.ReportRow
		var stone, qty, pallets, dest, phone, photos, price, loader, operator sql.NullString
		err := rows.Scan(
			&r.CreatedAt, &r.Date, &r.OrderID, &stone, &qty, &pallets,
			&dest, &phone, &photos, &price, &loader, &operator,
		)
		if err != nil {
			return nil, err
		}
		r.StoneTypeSize = stone.String
		r.Quantity = qty.String
		r.PalletCount = pallets.String
		r.Destination = dest.String
		r.DriverPhone = phone.String
		r.PhotoRefs = photos.String
		r.DeliveryPrice = price.String
		r.LoaderName = loader.String
		r.Operator = operator.String
		out = append(out, r)
	}

	return out, rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}
