package fuel

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

// AlertStatus flags whether a stock level sits below the safety threshold.
type AlertStatus string

const (
	AlertOK    AlertStatus = "OK"
	AlertAlarm AlertStatus = "ALERT"
)

// LedgerRow is the derived view of one purchase. It is recomputed on every read.
type LedgerRow struct {
	Record           models.PurchaseRecord `json:"record"`
	CumulativeVolume decimal.Decimal       `json:"cumulative_volume"`
	OpeningStock     decimal.Decimal       `json:"opening_stock"`
	ClosingStock     decimal.Decimal       `json:"closing_stock"`
	Alert            AlertStatus           `json:"alert"`
	// Negative is set when purchases exceed the initial stock.
	Negative bool `json:"negative"`
}

// ComputeLedger walks the purchases in date order (insertion order on ties)
// and projects the cumulative volume, real stock and alert status of each.
// Stock is not floored: a negative value surfaces over-consumption.
func ComputeLedger(records []models.PurchaseRecord, initialStock, threshold decimal.Decimal) []LedgerRow {
	rows := make([]LedgerRow, 0, len(records))
	if len(records) == 0 {
		return rows
	}

	sorted := SortByDate(records)

	cumulative := decimal.Zero
	for _, rec := range sorted {
		cumulative = cumulative.Add(rec.Volume)
		closing := initialStock.Sub(cumulative)

		rows = append(rows, LedgerRow{
			Record:           rec,
			CumulativeVolume: cumulative,
			OpeningStock:     initialStock,
			ClosingStock:     closing,
			Alert:            alertFor(closing, threshold),
			Negative:         closing.IsNegative(),
		})
	}

	return rows
}

// SortByDate returns a copy of records stably sorted by date.
func SortByDate(records []models.PurchaseRecord) []models.PurchaseRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.PurchaseRecord) int {
		return a.Date.Compare(b.Date)
	})
	return sorted
}

// CurrentStock returns the closing stock of the last row. The second value
// is false when the ledger is empty and no current stock is defined.
func CurrentStock(rows []LedgerRow) (decimal.Decimal, bool) {
	if len(rows) == 0 {
		return decimal.Zero, false
	}
	return rows[len(rows)-1].ClosingStock, true
}

func alertFor(stock, threshold decimal.Decimal) AlertStatus {
	if stock.LessThan(threshold) {
		return AlertAlarm
	}
	return AlertOK
}
