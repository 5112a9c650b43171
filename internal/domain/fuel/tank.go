package fuel

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

// TankRow is the derived view of one delivery on the two-ledger tank model.
type TankRow struct {
	Delivery        models.DeliveryRecord `json:"delivery"`
	OpeningStock    decimal.Decimal       `json:"opening_stock"`
	DeliveredVolume decimal.Decimal       `json:"delivered_volume"`
	SoldVolume      decimal.Decimal       `json:"sold_volume"`
	ClosingStock    decimal.Decimal       `json:"closing_stock"`
	Alert           AlertStatus           `json:"alert"`
	// Clipped is set when sales exceeded the available stock; Shortfall holds
	// the litres that were dropped to keep the tank at zero.
	Clipped   bool            `json:"clipped"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

type calendarDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time) calendarDay {
	y, m, d := t.Date()
	return calendarDay{year: y, month: m, day: d}
}

// ComputeTank chains the deliveries in the given order: each opening stock is
// the previous closing stock, the first one is initialStock. Sales are summed
// per calendar day and subtracted from every delivery sharing that day, so two
// deliveries on one day each subtract the full day total. The tank cannot
// hold negative fuel, so closing stock is floored at zero.
func ComputeTank(deliveries []models.DeliveryRecord, sales []models.SalesRecord, initialStock, threshold decimal.Decimal) []TankRow {
	rows := make([]TankRow, 0, len(deliveries))
	if len(deliveries) == 0 {
		return rows
	}

	soldPerDay := salesByDay(sales)

	opening := initialStock
	for _, d := range deliveries {
		sold := soldPerDay[dayOf(d.Date)]
		raw := opening.Add(d.Volume).Sub(sold)

		row := TankRow{
			Delivery:        d,
			OpeningStock:    opening,
			DeliveredVolume: d.Volume,
			SoldVolume:      sold,
			ClosingStock:    raw,
			Shortfall:       decimal.Zero,
		}
		if raw.IsNegative() {
			row.ClosingStock = decimal.Zero
			row.Clipped = true
			row.Shortfall = raw.Neg()
		}
		row.Alert = alertFor(row.ClosingStock, threshold)

		rows = append(rows, row)
		opening = row.ClosingStock
	}

	return rows
}

// salesByDay sums the sold volume of every sale falling on the same calendar day.
func salesByDay(sales []models.SalesRecord) map[calendarDay]decimal.Decimal {
	out := make(map[calendarDay]decimal.Decimal, len(sales))
	for _, s := range sales {
		key := dayOf(s.Date)
		out[key] = out[key].Add(s.VolumeSold)
	}
	return out
}

// CurrentTankStock returns the closing stock of the last tank row, if any.
func CurrentTankStock(rows []TankRow) (decimal.Decimal, bool) {
	if len(rows) == 0 {
		return decimal.Zero, false
	}
	return rows[len(rows)-1].ClosingStock, true
}

// TankSummary is the dashboard summary of the two-ledger tank model.
type TankSummary struct {
	InitialStock    decimal.Decimal `json:"initial_stock"`
	SafetyThreshold decimal.Decimal `json:"safety_threshold"`
	TotalDelivered  decimal.Decimal `json:"total_delivered"`
	TotalSold       decimal.Decimal `json:"total_sold"`
	TotalCollected  decimal.Decimal `json:"total_collected"`
	ClippedRows     int             `json:"clipped_rows"`
	// CurrentClosingStock and CurrentAlert are absent when no delivery exists.
	CurrentClosingStock *decimal.Decimal `json:"current_closing_stock,omitempty"`
	CurrentAlert        AlertStatus      `json:"current_alert,omitempty"`
}

// SummarizeTank builds the tank summary. Sales totals cover the whole sales
// ledger, including days without a matching delivery.
func SummarizeTank(rows []TankRow, sales []models.SalesRecord, initialStock, threshold decimal.Decimal) TankSummary {
	out := TankSummary{
		InitialStock:    initialStock,
		SafetyThreshold: threshold,
		TotalDelivered:  decimal.Zero,
		TotalSold:       decimal.Zero,
		TotalCollected:  decimal.Zero,
	}

	for _, r := range rows {
		out.TotalDelivered = out.TotalDelivered.Add(r.DeliveredVolume)
		if r.Clipped {
			out.ClippedRows++
		}
	}
	for _, s := range sales {
		out.TotalSold = out.TotalSold.Add(s.VolumeSold)
		out.TotalCollected = out.TotalCollected.Add(s.AmountCollected)
	}

	if current, ok := CurrentTankStock(rows); ok {
		out.CurrentClosingStock = &current
		out.CurrentAlert = rows[len(rows)-1].Alert
	}

	return out
}
