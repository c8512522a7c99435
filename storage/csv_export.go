package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"copart-organizer/models"
)

// CSVExporter streams the tracked list as CSV, for the export download.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

// Export writes a header row plus one row per lot.
func (e *CSVExporter) Export(w io.Writer, lots []*models.Lot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"lot_number", "title", "year", "make", "model", "vin",
		"odometer", "primary_damage", "location", "sale_date",
		"sale_status", "current_bid", "buy_it_now", "favorite", "notes", "added_at",
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, l := range lots {
		row := []string{
			l.LotNumber,
			strOrEmpty(l.Title),
			intOrEmpty(l.Year),
			strOrEmpty(l.Make),
			strOrEmpty(l.Model),
			strOrEmpty(l.VIN),
			odometerOrEmpty(l.Odometer),
			strOrEmpty(l.PrimaryDamage),
			strOrEmpty(l.Location),
			timeOrEmpty(l.SaleDate),
			string(l.SaleStatus),
			floatOrEmpty(l.CurrentBid),
			floatOrEmpty(l.BuyItNow),
			strconv.FormatBool(l.IsFavorite),
			l.Notes,
			timeOrEmpty(l.AddedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func odometerOrEmpty(o *models.Odometer) string {
	if o == nil {
		return ""
	}
	return fmt.Sprintf("%.0f %s", o.Value, o.Unit)
}
