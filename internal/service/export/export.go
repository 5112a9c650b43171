// Package export renders computed ledgers as xlsx workbooks. Every cell holds
// a computed value; workbooks never carry formulas.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "2006-01-02"
)

var (
	operationsHeader = []interface{}{"Date", "Engin", "PU", "Montant", "Quantite_L", "Stock_initial_L", "Cumul_Quantite_L", "Stock_reel_L", "Alerte"}
	resumeHeader     = []interface{}{"Stock_initial_L", "Seuil_securite_L", "PU", "Total_quantite_L", "Stock_reel_L"}
	commandesHeader  = []interface{}{"Date", "N° Châssis", "Montant", "PU", "Quantité livrée (L)", "Stock initial (L)", "Quantité vendue (L)", "Stock final (L)", "Alerte", "Manquant (L)"}
	tankSalesHeader  = []interface{}{"Date", "Quantité vendue (L)", "Montant encaissé"}
	agentSalesHeader = []interface{}{"Date", "Commercial", "Contact", "Quantité", "Prix unitaire", "Montant total", "Commune", "Commentaire"}
)

// Source exposes the computed ledgers to export.
type Source interface {
	Parameters() models.Parameters
	Ledger() []fuel.LedgerRow
	Summary() fuel.StockSummary
	Tank() []fuel.TankRow
	TankSummary() fuel.TankSummary
	Sales() []models.SalesRecord
	AgentSales() []models.AgentSale
}

// Service builds the depot workbooks.
type Service struct {
	source Source
	logger *zap.Logger
}

// NewService wires a new export service instance.
func NewService(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// WriteLedger writes the purchases workbook: one "Operations" sheet with the
// stored and derived columns, one "Resume" sheet with the dashboard figures.
func (s *Service) WriteLedger(w io.Writer) error {
	rows := s.source.Ledger()
	summary := s.source.Summary()

	b, err := newBook("Operations")
	if err != nil {
		return err
	}
	defer b.close()

	b.header("Operations", operationsHeader)
	for _, r := range rows {
		b.row("Operations", []interface{}{
			r.Record.Date.Format(dateLayout),
			r.Record.AssetID,
			num(r.Record.UnitPrice),
			num(r.Record.Amount),
			num(r.Record.Volume),
			num(r.OpeningStock),
			num(r.CumulativeVolume),
			num(r.ClosingStock),
			alertLabel(r.Alert),
		})
	}

	b.sheet("Resume")
	b.header("Resume", resumeHeader)
	b.row("Resume", []interface{}{
		num(summary.InitialStock),
		num(summary.SafetyThreshold),
		num(summary.UnitPrice),
		num(summary.TotalVolume),
		optional(summary.CurrentClosingStock),
	})

	s.logger.Debug("ledger workbook built", zap.Int("rows", len(rows)))
	return b.write(w)
}

// WriteTank writes the tank workbook: parameters, derived delivery rows and
// the sales ledger.
func (s *Service) WriteTank(w io.Writer) error {
	params := s.source.Parameters()
	rows := s.source.Tank()
	sales := s.source.Sales()

	b, err := newBook("Paramètres")
	if err != nil {
		return err
	}
	defer b.close()

	if params.TankCapacity != nil {
		b.row("Paramètres", []interface{}{"Capacité cuve (L)", num(*params.TankCapacity)})
	}
	if params.SafetyPercent != nil {
		b.row("Paramètres", []interface{}{"Niveau sécurité (%)", num(*params.SafetyPercent)})
	}
	b.row("Paramètres", []interface{}{"Stock initial (L)", num(params.InitialStock)})
	b.row("Paramètres", []interface{}{"Seuil sécurité (L)", num(params.Threshold())})
	b.row("Paramètres", []interface{}{"PU", num(params.UnitPrice)})

	b.sheet("Commandes")
	b.header("Commandes", commandesHeader)
	for _, r := range rows {
		b.row("Commandes", []interface{}{
			r.Delivery.Date.Format(dateLayout),
			r.Delivery.AssetID,
			num(r.Delivery.Amount),
			num(r.Delivery.UnitPrice),
			num(r.DeliveredVolume),
			num(r.OpeningStock),
			num(r.SoldVolume),
			num(r.ClosingStock),
			alertLabel(r.Alert),
			num(r.Shortfall),
		})
	}

	b.sheet("Ventes")
	b.header("Ventes", tankSalesHeader)
	for _, sale := range sales {
		b.row("Ventes", []interface{}{
			sale.Date.Format(dateLayout),
			num(sale.VolumeSold),
			num(sale.AmountCollected),
		})
	}

	return b.write(w)
}

// WriteAgents writes the commercial sales workbook with its statistics sheet.
func (s *Service) WriteAgents(w io.Writer) error {
	sales := s.source.AgentSales()
	stats := fuel.AgentSalesStatistics(sales)

	b, err := newBook("Ventes")
	if err != nil {
		return err
	}
	defer b.close()

	b.header("Ventes", agentSalesHeader)
	for _, sale := range sales {
		b.row("Ventes", []interface{}{
			sale.Date.Format(dateLayout),
			sale.Agent,
			sale.Contact,
			num(sale.Quantity),
			num(sale.UnitPrice),
			num(sale.Total),
			sale.Commune,
			sale.Comment,
		})
	}

	b.sheet("Stats")
	b.row("Stats", []interface{}{"Statistiques globales"})
	b.row("Stats", []interface{}{"Total des ventes (FCFA)", num(stats.TotalSales)})
	b.row("Stats", []interface{}{"Nombre de ventes", stats.SalesCount})
	b.row("Stats", []interface{}{"Quantité totale vendue", num(stats.TotalQuantity)})
	b.row("Stats", []interface{}{"Prix unitaire moyen", num(stats.AverageUnitPrice)})

	best := ""
	if stats.BestAgent != nil {
		best = stats.BestAgent.Key
	}
	b.row("Stats", []interface{}{"Meilleur commercial", best})

	b.row("Stats", []interface{}{"Ventes par mois"})
	for _, m := range stats.Months {
		b.row("Stats", []interface{}{m.Month, num(m.Sum)})
	}

	b.row("Stats", []interface{}{"Ventes par commercial"})
	for _, g := range stats.Agents {
		b.row("Stats", []interface{}{g.Key, num(g.Sum), g.Count})
	}

	return b.write(w)
}

// book accumulates rows sheet by sheet and keeps the first error.
type book struct {
	f    *excelize.File
	next map[string]int
	bold int
	err  error
}

func newBook(first string) (*book, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	return &book{f: f, next: map[string]int{first: 1}, bold: bold}, nil
}

func (b *book) sheet(name string) {
	if b.err != nil {
		return
	}
	if _, err := b.f.NewSheet(name); err != nil {
		b.err = fmt.Errorf("add sheet %s: %w", name, err)
		return
	}
	b.next[name] = 1
}

func (b *book) header(sheet string, values []interface{}) {
	row := b.next[sheet]
	b.row(sheet, values)
	if b.err != nil {
		return
	}
	if err := b.f.SetRowStyle(sheet, row, row, b.bold); err != nil {
		b.err = fmt.Errorf("style %s header: %w", sheet, err)
		return
	}
	if err := b.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: row, TopLeftCell: fmt.Sprintf("A%d", row+1), ActivePane: "bottomLeft"}); err != nil {
		b.err = fmt.Errorf("freeze %s header: %w", sheet, err)
	}
}

func (b *book) row(sheet string, values []interface{}) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, b.next[sheet])
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("write %s row %d: %w", sheet, b.next[sheet], err)
		return
	}
	b.next[sheet]++
}

func (b *book) write(w io.Writer) error {
	if b.err != nil {
		return b.err
	}
	if err := b.f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (b *book) close() {
	_ = b.f.Close()
}

func num(v decimal.Decimal) float64 {
	return v.InexactFloat64()
}

func optional(v *decimal.Decimal) interface{} {
	if v == nil {
		return ""
	}
	return num(*v)
}

func alertLabel(a fuel.AlertStatus) string {
	if a == fuel.AlertAlarm {
		return "ALERTE"
	}
	return string(a)
}
