package models

import (
	"strconv"
	"strings"
	"time"
)

// Layouts used for the persisted timestamp and date columns.
const (
	TimestampLayout = "2006-01-02T15:04:05"
	DateLayout      = "2006-01-02"
)

// MaxPhotos is the upper bound on photo references per shipment.
const MaxPhotos = 4

// Shipment is the in-progress record collected step by step.
type Shipment struct {
	StoneTypeSize string    `json:"stone_type_size,omitempty"`
	Quantity      string    `json:"quantity,omitempty"`
	PalletCount   *int      `json:"pallet_count,omitempty"`
	Destination   string    `json:"destination,omitempty"`
	DriverPhone   string    `json:"driver_phone,omitempty"`
	PhotoRefs     []string  `json:"photo_refs,omitempty"`
	DeliveryPrice string    `json:"delivery_price,omitempty"`
	LoaderName    string    `json:"loader_name,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Clone returns a deep copy.
func (s Shipment) Clone() Shipment {
	out := s
	if s.PalletCount != nil {
		n := *s.PalletCount
		out.PalletCount = &n
	}
	if s.PhotoRefs != nil {
		out.PhotoRefs = append([]string(nil), s.PhotoRefs...)
	}
	return out
}

// Pallets returns the pallet count, zero when unset.
func (s Shipment) Pallets() int {
	if s.PalletCount == nil {
		return 0
	}
	return *s.PalletCount
}

// Record is a committed shipment as handed to the store.
type Record struct {
	OrderID  string
	Operator string
	Shipment
}

// Columns is the header row of the shipment table.
var Columns = []string{
	"Timestamp", "Sana", "Buyurtma_ID", "Turi_razmer", "Miqdor_m2_uzunlik", "Paddon_soni",
	"Manzil", "Telefon", "Rasmlar_file_ids", "Yetkazish_summa", "Yuklagan_kim", "Operator",
}

// Values renders the record as one table row in Columns order.
func (r Record) Values() []string {
	return []string{
		r.CreatedAt.Format(TimestampLayout),
		r.CreatedAt.Format(DateLayout),
		r.OrderID,
		r.StoneTypeSize,
		r.Quantity,
		strconv.Itoa(r.Pallets()),
		r.Destination,
		r.DriverPhone,
		strings.Join(r.PhotoRefs, ","),
		r.DeliveryPrice,
		r.LoaderName,
		r.Operator,
	}
}

// ReportRow is a stored record read back as text. Numeric typing is not
// preserved by the store.
type ReportRow struct {
	CreatedAt     string
	Date          string
	OrderID       string
	StoneTypeSize string
	Quantity      string
	PalletCount   string
	Destination   string
	DriverPhone   string
	PhotoRefs     string
	DeliveryPrice string
	LoaderName    string
	Operator      string
}

// RowFromValues maps a table row onto a ReportRow. Short rows leave the
// trailing fields empty.
func RowFromValues(values []string) ReportRow {
	get := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return ReportRow{
		CreatedAt:     get(0),
		Date:          get(1),
		OrderID:       get(2),
		StoneTypeSize: get(3),
		Quantity:      get(4),
		PalletCount:   get(5),
		Destination:   get(6),
		DriverPhone:   get(7),
		PhotoRefs:     get(8),
		DeliveryPrice: get(9),
		LoaderName:    get(10),
		Operator:      get(11),
	}
}

// Time parses CreatedAt in loc.
func (r ReportRow) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, strings.TrimSpace(r.CreatedAt), loc)
}
