package fuel

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestComputeLedgerScenarios(t *testing.T) {
	initial, threshold, price := d("9000"), d("1000"), d("775")

	first, err := Reconcile(price, decimal.Zero, d("50"))
	require.NoError(t, err)
	assert.True(t, first.Amount.Equal(d("38750")))

	records := []models.PurchaseRecord{
		{Date: day(2025, 9, 1), AssetID: "CHASSIS-123", UnitPrice: price, Amount: first.Amount, Volume: first.Volume},
	}
	rows := ComputeLedger(records, initial, threshold)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].ClosingStock.Equal(d("8950")))
	assert.Equal(t, AlertOK, rows[0].Alert)

	second, err := Reconcile(price, d("10000"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, second.Volume.Round(3).Equal(d("12.903")))

	records = append(records, models.PurchaseRecord{Date: day(2025, 9, 2), AssetID: "CHASSIS-456", UnitPrice: price, Amount: second.Amount, Volume: second.Volume})
	rows = ComputeLedger(records, initial, threshold)
	require.Len(t, rows, 2)
	assert.True(t, rows[1].CumulativeVolume.Round(3).Equal(d("62.903")))
	assert.True(t, rows[1].ClosingStock.Round(3).Equal(d("8937.097")))
	assert.Equal(t, AlertOK, rows[1].Alert)
}

func TestComputeLedgerEmpty(t *testing.T) {
	rows := ComputeLedger(nil, d("9000"), d("1000"))
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, ok := CurrentStock(rows)
	assert.False(t, ok)
}

func TestComputeLedgerSortsStably(t *testing.T) {
	records := []models.PurchaseRecord{
		{Date: day(2025, 9, 3), AssetID: "C", Volume: d("30")},
		{Date: day(2025, 9, 1), AssetID: "A1", Volume: d("10")},
		{Date: day(2025, 9, 1), AssetID: "A2", Volume: d("20")},
	}

	rows := ComputeLedger(records, d("100"), d("50"))
	require.Len(t, rows, 3)
	assert.Equal(t, "A1", rows[0].Record.AssetID)
	assert.Equal(t, "A2", rows[1].Record.AssetID)
	assert.Equal(t, "C", rows[2].Record.AssetID)

	assert.True(t, rows[1].ClosingStock.Equal(d("70")))
	assert.Equal(t, AlertOK, rows[1].Alert)
	assert.True(t, rows[2].ClosingStock.Equal(d("40")))
	assert.Equal(t, AlertAlarm, rows[2].Alert)

	// input is left untouched
	assert.Equal(t, "C", records[0].AssetID)
}

func TestComputeLedgerAllowsNegativeStock(t *testing.T) {
	records := []models.PurchaseRecord{
		{Date: day(2025, 9, 1), Volume: d("80")},
		{Date: day(2025, 9, 2), Volume: d("50")},
	}

	rows := ComputeLedger(records, d("100"), d("10"))
	require.Len(t, rows, 2)
	assert.True(t, rows[1].ClosingStock.Equal(d("-30")))
	assert.True(t, rows[1].Negative)
	assert.False(t, rows[0].Negative)
	assert.Equal(t, AlertAlarm, rows[1].Alert)
}

func TestComputeLedgerIsPureAndMonotonic(t *testing.T) {
	records := []models.PurchaseRecord{
		{Date: day(2025, 10, 5), Volume: d("12.5")},
		{Date: day(2025, 10, 1), Volume: d("0")},
		{Date: day(2025, 10, 3), Volume: d("300")},
		{Date: day(2025, 10, 3), Volume: d("7.25")},
	}

	first := ComputeLedger(records, d("9000"), d("1000"))
	second := ComputeLedger(records, d("9000"), d("1000"))
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.True(t, first[i].CumulativeVolume.GreaterThanOrEqual(first[i-1].CumulativeVolume))
		assert.True(t, first[i].OpeningStock.Equal(d("9000")))
	}
}
