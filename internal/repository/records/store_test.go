package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/repository/sheets/sheetstest"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEnsureHeadersAndReset(t *testing.T) {
	mem := sheetstest.NewMemory()
	store := NewStore(mem, nil)
	ctx := context.Background()

	require.NoError(t, store.EnsureHeaders(ctx))
	require.NoError(t, store.EnsureHeaders(ctx))

	rows := mem.Rows(PurchasesTable.Range)
	require.Len(t, rows, 1)
	assert.Equal(t, []interface{}{"Date", "Engin", "PU", "Montant", "Quantite_L"}, rows[0])

	rec := models.PurchaseRecord{Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), AssetID: "CHASSIS-123", UnitPrice: dec("775"), Amount: dec("38750"), Volume: dec("50")}
	require.NoError(t, store.AppendPurchase(ctx, rec))
	assert.Len(t, mem.Rows(PurchasesTable.Range), 2)

	require.NoError(t, store.Reset(ctx, PurchasesTable))
	rows = mem.Rows(PurchasesTable.Range)
	require.Len(t, rows, 1)
	assert.Equal(t, "Date", rows[0][0])
}

func TestPurchaseRoundTrip(t *testing.T) {
	mem := sheetstest.NewMemory()
	store := NewStore(mem, nil)
	ctx := context.Background()
	require.NoError(t, store.EnsureHeaders(ctx))

	rec := models.PurchaseRecord{Date: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), AssetID: "CHASSIS-9", UnitPrice: dec("775"), Amount: dec("10000"), Volume: dec("12.9032258064516129")}
	require.NoError(t, store.AppendPurchase(ctx, rec))

	cells, issues, err := store.LoadPurchases(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, cells, 1)

	got, issues := cells[0].Coerce(PurchasesTable, dec("1"))
	assert.Empty(t, issues)
	assert.True(t, got.Date.Equal(rec.Date))
	assert.Equal(t, rec.AssetID, got.AssetID)
	assert.True(t, got.Volume.Equal(rec.Volume))
	assert.True(t, got.Amount.Equal(rec.Amount))
	assert.True(t, got.UnitPrice.Equal(rec.UnitPrice))
}

func TestDeliveryColumnOrder(t *testing.T) {
	rec := models.DeliveryRecord{Date: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), AssetID: "TRUCK", UnitPrice: dec("800"), Amount: dec("400000"), Volume: dec("500")}
	row := EncodeDelivery(rec)
	assert.Equal(t, []interface{}{"2025-09-02", "TRUCK", "400000", "800", "500"}, row)

	cells, err := DecodeDelivery(row, 2)
	require.NoError(t, err)
	got, issues := cells.Coerce(DeliveriesTable, decimal.Zero)
	assert.Empty(t, issues)
	assert.True(t, got.Amount.Equal(rec.Amount))
	assert.True(t, got.UnitPrice.Equal(rec.UnitPrice))
}

func TestLoadPurchasesCoercesMalformedCells(t *testing.T) {
	mem := sheetstest.NewMemory()
	mem.Seed(PurchasesTable.Range,
		[]interface{}{"Date", "Engin", "PU", "Montant", "Quantite_L"},
		[]interface{}{"2025-09-01", "A", "", "38750", "50"},
		[]interface{}{"not a date", "B", "775", "1", "1"},
		[]interface{}{"", "", "", "", ""},
		[]interface{}{"01/09/2025", "C", "775", "oops"},
	)
	store := NewStore(mem, nil)

	cells, issues, err := store.LoadPurchases(context.Background())
	require.NoError(t, err)
	require.Len(t, cells, 2)
	require.Len(t, issues, 1)
	assert.Equal(t, 3, issues[0].Row)

	first, issues := cells[0].Coerce(PurchasesTable, dec("775"))
	require.Len(t, issues, 1)
	assert.Equal(t, "PU", issues[0].Column)
	assert.Equal(t, "missing value", issues[0].Reason)
	assert.True(t, first.UnitPrice.Equal(dec("775")))

	second, issues := cells[1].Coerce(PurchasesTable, dec("775"))
	require.Len(t, issues, 2)
	assert.Equal(t, "Montant", issues[0].Column)
	assert.Equal(t, "not a number", issues[0].Reason)
	assert.Equal(t, "Quantite_L", issues[1].Column)
	assert.True(t, second.Amount.IsZero())
	assert.True(t, second.Volume.IsZero())
	assert.Equal(t, 5, cells[1].Row)
}

func TestLoadSalesAndAgentSales(t *testing.T) {
	mem := sheetstest.NewMemory()
	store := NewStore(mem, nil)
	ctx := context.Background()
	require.NoError(t, store.EnsureHeaders(ctx))

	require.NoError(t, store.AppendSale(ctx, models.SalesRecord{Date: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), VolumeSold: dec("150"), AmountCollected: dec("116250")}))
	require.NoError(t, store.AppendAgentSale(ctx, models.AgentSale{Date: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), Agent: "Moussa", Contact: "70352450", Quantity: dec("10"), UnitPrice: dec("250"), Total: dec("2500"), Commune: "Kalaban"}))
	mem.Seed(AgentSalesTable.Range, append(mem.Rows(AgentSalesTable.Range), []interface{}{"2025-10-02", "Mariam", "", "x", "300", "0"})...)

	sales, issues, err := store.LoadSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, sales, 1)
	rec, issues := sales[0].Coerce()
	assert.Empty(t, issues)
	assert.True(t, rec.VolumeSold.Equal(dec("150")))

	agents, issues, err := store.LoadAgentSales(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	require.Len(t, issues, 1)
	assert.Equal(t, "Quantité", issues[0].Column)
	assert.Equal(t, "Kalaban", agents[0].Commune)
	assert.True(t, agents[1].Quantity.IsZero())
}

func TestStorePropagatesRepositoryErrors(t *testing.T) {
	mem := sheetstest.NewMemory()
	mem.FailReads = errors.New("quota exceeded")
	store := NewStore(mem, nil)

	_, _, err := store.LoadPurchases(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")

	mem.FailReads = nil
	mem.FailWrites = errors.New("read only")
	assert.Error(t, store.AppendSale(context.Background(), models.SalesRecord{}))
}

func TestTableByName(t *testing.T) {
	tbl, ok := TableByName("sales")
	require.True(t, ok)
	assert.Equal(t, SalesTable.Range, tbl.Range)

	_, ok = TableByName("nope")
	assert.False(t, ok)
}

type headerlessRepo struct {
	*sheetstest.Memory
	failWrites bool
}

func (r *headerlessRepo) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if r.failWrites {
		return errors.New("quota exceeded")
	}
	return r.Memory.WriteRow(ctx, sheetRange, values)
}

func TestResetRestoresHeaderOnNextAppend(t *testing.T) {
	repo := &headerlessRepo{Memory: sheetstest.NewMemory()}
	store := NewStore(repo, nil)
	ctx := context.Background()
	require.NoError(t, store.EnsureHeaders(ctx))
	require.NoError(t, store.AppendSale(ctx, models.SalesRecord{Date: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), VolumeSold: dec("10")}))

	repo.failWrites = true
	err := store.Reset(ctx, SalesTable)
	require.ErrorIs(t, err, ErrHeaderNotRestored)
	assert.Empty(t, repo.Rows(SalesTable.Range))

	repo.failWrites = false
	require.NoError(t, store.AppendSale(ctx, models.SalesRecord{Date: time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC), VolumeSold: dec("4")}))
	rows := repo.Rows(SalesTable.Range)
	require.Len(t, rows, 2)
	assert.Equal(t, SalesTable.Header[0], rows[0][0])
	assert.Equal(t, "2025-09-03", rows[1][0])
}
