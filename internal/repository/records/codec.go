package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

const dateFormat = "2006-01-02"

// Issue reports one stored cell that could not be read as expected.
type Issue struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s row %d column %s: %s (%q)", i.Table, i.Row, i.Column, i.Reason, i.Raw)
}

// PurchaseCells is a decoded purchase or delivery row before any fallback
// policy is applied.
type PurchaseCells struct {
	Row       int
	Date      time.Time
	AssetID   string
	UnitPrice fuel.Parsed
	Amount    fuel.Parsed
	Volume    fuel.Parsed
}

// Coerce applies the load policy: a missing unit price takes
// defaultUnitPrice, missing or malformed amounts and volumes become zero.
// Every substitution is reported as an Issue.
func (c PurchaseCells) Coerce(table Table, defaultUnitPrice decimal.Decimal) (models.PurchaseRecord, []Issue) {
	var issues []Issue
	columns := purchaseColumns(table)

	pick := func(p fuel.Parsed, column string, fallback decimal.Decimal) decimal.Decimal {
		if !p.OK {
			issues = append(issues, Issue{Table: table.Name, Row: c.Row, Column: column, Raw: p.Raw, Reason: reasonFor(p)})
		}
		return p.Or(fallback)
	}

	rec := models.PurchaseRecord{
		Date:      c.Date,
		AssetID:   c.AssetID,
		UnitPrice: pick(c.UnitPrice, columns.unitPrice, defaultUnitPrice),
		Amount:    pick(c.Amount, columns.amount, decimal.Zero),
		Volume:    pick(c.Volume, columns.volume, decimal.Zero),
	}
	return rec, issues
}

// SalesCells is a decoded sales row before any fallback policy is applied.
type SalesCells struct {
	Row             int
	Date            time.Time
	VolumeSold      fuel.Parsed
	AmountCollected fuel.Parsed
}

// Coerce turns missing or malformed quantities into zero and reports them.
func (c SalesCells) Coerce() (models.SalesRecord, []Issue) {
	var issues []Issue
	for i, p := range []fuel.Parsed{c.VolumeSold, c.AmountCollected} {
		if !p.OK {
			issues = append(issues, Issue{Table: SalesTable.Name, Row: c.Row, Column: SalesTable.Header[i+1], Raw: p.Raw, Reason: reasonFor(p)})
		}
	}
	return models.SalesRecord{
		Date:            c.Date,
		VolumeSold:      c.VolumeSold.Or(decimal.Zero),
		AmountCollected: c.AmountCollected.Or(decimal.Zero),
	}, issues
}

type columnNames struct {
	unitPrice, amount, volume string
}

func purchaseColumns(table Table) columnNames {
	if table.Name == DeliveriesTable.Name {
		return columnNames{unitPrice: table.Header[3], amount: table.Header[2], volume: table.Header[4]}
	}
	return columnNames{unitPrice: table.Header[2], amount: table.Header[3], volume: table.Header[4]}
}

func reasonFor(p fuel.Parsed) string {
	if p.Empty() {
		return "missing value"
	}
	return "not a number"
}

// EncodePurchase renders a purchase in the purchases column order.
func EncodePurchase(rec models.PurchaseRecord) []interface{} {
	return []interface{}{rec.Date.Format(dateFormat), rec.AssetID, rec.UnitPrice.String(), rec.Amount.String(), rec.Volume.String()}
}

// DecodePurchase reads a purchases row. Only an unreadable date is fatal to the row.
func DecodePurchase(row []interface{}, index int) (PurchaseCells, error) {
	date, err := fuel.ParseDate(cell(row, 0))
	if err != nil {
		return PurchaseCells{}, err
	}
	return PurchaseCells{
		Row:       index,
		Date:      date,
		AssetID:   strings.TrimSpace(fmt.Sprint(cellOr(row, 1, ""))),
		UnitPrice: fuel.ParseDecimal(cell(row, 2)),
		Amount:    fuel.ParseDecimal(cell(row, 3)),
		Volume:    fuel.ParseDecimal(cell(row, 4)),
	}, nil
}

// EncodeDelivery renders a delivery in the deliveries column order.
func EncodeDelivery(rec models.DeliveryRecord) []interface{} {
	return []interface{}{rec.Date.Format(dateFormat), rec.AssetID, rec.Amount.String(), rec.UnitPrice.String(), rec.Volume.String()}
}

// DecodeDelivery reads a deliveries row.
func DecodeDelivery(row []interface{}, index int) (PurchaseCells, error) {
	date, err := fuel.ParseDate(cell(row, 0))
	if err != nil {
		return PurchaseCells{}, err
	}
	return PurchaseCells{
		Row:       index,
		Date:      date,
		AssetID:   strings.TrimSpace(fmt.Sprint(cellOr(row, 1, ""))),
		Amount:    fuel.ParseDecimal(cell(row, 2)),
		UnitPrice: fuel.ParseDecimal(cell(row, 3)),
		Volume:    fuel.ParseDecimal(cell(row, 4)),
	}, nil
}

// EncodeSale renders a tank sale.
func EncodeSale(rec models.SalesRecord) []interface{} {
	return []interface{}{rec.Date.Format(dateFormat), rec.VolumeSold.String(), rec.AmountCollected.String()}
}

// DecodeSale reads a tank sales row.
func DecodeSale(row []interface{}, index int) (SalesCells, error) {
	date, err := fuel.ParseDate(cell(row, 0))
	if err != nil {
		return SalesCells{}, err
	}
	return SalesCells{
		Row:             index,
		Date:            date,
		VolumeSold:      fuel.ParseDecimal(cell(row, 1)),
		AmountCollected: fuel.ParseDecimal(cell(row, 2)),
	}, nil
}

// EncodeAgentSale renders a commercial sale.
func EncodeAgentSale(rec models.AgentSale) []interface{} {
	return []interface{}{
		rec.Date.Format(dateFormat), rec.Agent, rec.Contact,
		rec.Quantity.String(), rec.UnitPrice.String(), rec.Total.String(),
		rec.Commune, rec.Comment,
	}
}

// DecodeAgentSale reads a commercial sales row. Malformed numbers become zero.
func DecodeAgentSale(row []interface{}, index int) (models.AgentSale, []Issue, error) {
	date, err := fuel.ParseDate(cell(row, 0))
	if err != nil {
		return models.AgentSale{}, nil, err
	}

	var issues []Issue
	number := func(i int) decimal.Decimal {
		p := fuel.ParseDecimal(cell(row, i))
		if !p.OK {
			issues = append(issues, Issue{Table: AgentSalesTable.Name, Row: index, Column: AgentSalesTable.Header[i], Raw: p.Raw, Reason: reasonFor(p)})
		}
		return p.Or(decimal.Zero)
	}
	text := func(i int) string {
		return strings.TrimSpace(fmt.Sprint(cellOr(row, i, "")))
	}

	sale := models.AgentSale{
		Date:      date,
		Agent:     text(1),
		Contact:   text(2),
		Quantity:  number(3),
		UnitPrice: number(4),
		Total:     number(5),
		Commune:   text(6),
		Comment:   text(7),
	}
	return sale, issues, nil
}

func cell(row []interface{}, i int) interface{} {
	if i >= len(row) {
		return nil
	}
	return row[i]
}

func cellOr(row []interface{}, i int, fallback interface{}) interface{} {
	if v := cell(row, i); v != nil {
		return v
	}
	return fallback
}
