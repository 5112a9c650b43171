package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/repository/records"
)

// ErrUnknownLedger indicates a reset was requested for a ledger that does not exist.
var ErrUnknownLedger = errors.New("unknown ledger")

const (
	LedgerPurchases = "purchases"
	LedgerTank      = "tank"

	notifyTimeout = 15 * time.Second
)

// Notifier delivers low-stock alerts to operators.
type Notifier interface {
	NotifyLowStock(ctx context.Context, alert Alert) error
}

// Service owns the depot session: the operator parameters and the in-memory
// copy of every ledger. Appends write to the record store first and only
// then touch memory, so a failed write leaves the session unchanged.
type Service struct {
	mu sync.RWMutex

	store    *records.Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	params     models.Parameters
	purchases  []models.PurchaseRecord
	deliveries []models.DeliveryRecord
	sales      []models.SalesRecord
	agentSales []models.AgentSale
	issues     []records.Issue
}

// NewService wires a depot session. notifier may be nil.
func NewService(store *records.Store, params models.Parameters, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		params:   params,
	}
}

// SetNotifier replaces the low-stock notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Load replaces the session content with what the record store holds.
// Malformed cells are coerced (missing unit price to the configured one,
// other numbers to zero) and reported, never rejected.
func (s *Service) Load(ctx context.Context) (LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var issues []records.Issue

	purchases, loadIssues, err := s.loadPurchases(ctx)
	if err != nil {
		return LoadReport{}, err
	}
	issues = append(issues, loadIssues...)

	deliveries, loadIssues, err := s.loadDeliveries(ctx)
	if err != nil {
		return LoadReport{}, err
	}
	issues = append(issues, loadIssues...)

	sales, loadIssues, err := s.loadSales(ctx)
	if err != nil {
		return LoadReport{}, err
	}
	issues = append(issues, loadIssues...)

	agentSales, loadIssues, err := s.store.LoadAgentSales(ctx)
	if err != nil {
		return LoadReport{}, err
	}
	issues = append(issues, loadIssues...)

	for _, issue := range issues {
		s.logger.Warn("malformed stored value", zap.String("issue", issue.String()))
	}

	s.purchases = purchases
	s.deliveries = deliveries
	s.sales = sales
	s.agentSales = agentSales
	s.issues = issues

	report := LoadReport{
		Purchases:  len(purchases),
		Deliveries: len(deliveries),
		Sales:      len(sales),
		AgentSales: len(agentSales),
		Issues:     issues,
	}
	s.logger.Info("ledgers loaded",
		zap.Int("purchases", report.Purchases),
		zap.Int("deliveries", report.Deliveries),
		zap.Int("sales", report.Sales),
		zap.Int("agent_sales", report.AgentSales),
		zap.Int("issues", len(issues)))

	return report, nil
}

func (s *Service) loadPurchases(ctx context.Context) ([]models.PurchaseRecord, []records.Issue, error) {
	cells, issues, err := s.store.LoadPurchases(ctx)
	if err != nil {
		return nil, nil, err
	}
	out := make([]models.PurchaseRecord, 0, len(cells))
	for _, c := range cells {
		rec, coerced := c.Coerce(records.PurchasesTable, s.params.UnitPrice)
		issues = append(issues, coerced...)
		out = append(out, rec)
	}
	return fuel.SortByDate(out), issues, nil
}

func (s *Service) loadDeliveries(ctx context.Context) ([]models.DeliveryRecord, []records.Issue, error) {
	cells, issues, err := s.store.LoadDeliveries(ctx)
	if err != nil {
		return nil, nil, err
	}
	out := make([]models.DeliveryRecord, 0, len(cells))
	for _, c := range cells {
		rec, coerced := c.Coerce(records.DeliveriesTable, s.params.UnitPrice)
		issues = append(issues, coerced...)
		out = append(out, rec)
	}
	return fuel.SortByDate(out), issues, nil
}

func (s *Service) loadSales(ctx context.Context) ([]models.SalesRecord, []records.Issue, error) {
	cells, issues, err := s.store.LoadSales(ctx)
	if err != nil {
		return nil, nil, err
	}
	out := make([]models.SalesRecord, 0, len(cells))
	for _, c := range cells {
		rec, coerced := c.Coerce()
		issues = append(issues, coerced...)
		out = append(out, rec)
	}
	return out, issues, nil
}

// PreviewPurchase reconciles an input without recording it.
func (s *Service) PreviewPurchase(in PurchaseInput) (fuel.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, rec, err := s.reconcile(in)
	return rec, err
}

// AddPurchase reconciles, persists and appends one purchase, then recomputes
// the ledger. A low-stock alert is sent when the purchase moves the current
// stock below the threshold.
func (s *Service) AddPurchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error) {
	s.mu.Lock()

	record, rec, err := s.reconcile(in)
	if err != nil {
		s.mu.Unlock()
		return PurchaseResult{}, err
	}

	before := s.ledgerRows()
	if err := s.store.AppendPurchase(ctx, record); err != nil {
		s.mu.Unlock()
		return PurchaseResult{}, fmt.Errorf("persist purchase: %w", err)
	}
	s.purchases = append(s.purchases, record)

	rows := s.ledgerRows()
	result := PurchaseResult{
		Record:         record,
		Reconciliation: rec,
		Warning:        rec.Warning(),
		Row:            rowFor(rows, record),
		Summary:        fuel.Summarize(rows, s.params),
	}

	var alert *Alert
	if crossed(lastAlert(before), lastAlert(rows)) {
		last := rows[len(rows)-1]
		alert = &Alert{Ledger: LedgerPurchases, Date: last.Record.Date, AssetID: last.Record.AssetID, ClosingStock: last.ClosingStock, Threshold: s.params.Threshold()}
		result.AlertRaised = true
	}
	s.mu.Unlock()

	if result.Warning != "" {
		s.logger.Warn("inconsistent purchase recomputed from volume", zap.String("asset", record.AssetID), zap.String("expected", rec.Expected.String()))
	}
	s.logger.Info("purchase recorded",
		zap.String("asset", record.AssetID),
		zap.String("status", string(rec.Status)),
		zap.String("volume", record.Volume.String()),
		zap.String("amount", record.Amount.String()))

	s.notify(alert)
	return result, nil
}

// AddDelivery reconciles, persists and appends one tank delivery.
func (s *Service) AddDelivery(ctx context.Context, in PurchaseInput) (DeliveryResult, error) {
	s.mu.Lock()

	record, rec, err := s.reconcile(in)
	if err != nil {
		s.mu.Unlock()
		return DeliveryResult{}, err
	}

	before := s.tankRows()
	if err := s.store.AppendDelivery(ctx, record); err != nil {
		s.mu.Unlock()
		return DeliveryResult{}, fmt.Errorf("persist delivery: %w", err)
	}
	s.deliveries = append(s.deliveries, record)

	rows := s.tankRows()
	result := DeliveryResult{
		Record:         record,
		Reconciliation: rec,
		Warning:        rec.Warning(),
		Summary:        s.tankSummary(rows),
	}
	alert := s.tankAlert(before, rows)
	result.AlertRaised = alert != nil
	s.mu.Unlock()

	s.logger.Info("delivery recorded",
		zap.String("asset", record.AssetID),
		zap.String("status", string(rec.Status)),
		zap.String("volume", record.Volume.String()))

	s.notify(alert)
	return result, nil
}

// AddSale persists and appends one tank sale.
func (s *Service) AddSale(ctx context.Context, in SaleInput) (SaleResult, error) {
	if in.VolumeSold.IsNegative() || in.AmountCollected.IsNegative() {
		return SaleResult{}, fmt.Errorf("%w: sold volume and collected amount must be >= 0", fuel.ErrInvalidInput)
	}
	if in.VolumeSold.IsZero() && in.AmountCollected.IsZero() {
		return SaleResult{}, fuel.ErrMissingInput
	}

	s.mu.Lock()

	record := models.SalesRecord{
		Date:            s.dateOrToday(in.Date),
		VolumeSold:      in.VolumeSold,
		AmountCollected: in.AmountCollected,
	}

	before := s.tankRows()
	if err := s.store.AppendSale(ctx, record); err != nil {
		s.mu.Unlock()
		return SaleResult{}, fmt.Errorf("persist sale: %w", err)
	}
	s.sales = append(s.sales, record)

	rows := s.tankRows()
	result := SaleResult{Record: record, Summary: s.tankSummary(rows)}
	alert := s.tankAlert(before, rows)
	result.AlertRaised = alert != nil
	s.mu.Unlock()

	s.logger.Info("sale recorded", zap.Time("date", record.Date), zap.String("volume", record.VolumeSold.String()))

	s.notify(alert)
	return result, nil
}

// AddAgentSale records a commercial sale. Total and quantity are reconciled
// against the unit price, quantity winning on conflict.
func (s *Service) AddAgentSale(ctx context.Context, in AgentSaleInput) (models.AgentSale, fuel.Reconciliation, error) {
	agent := strings.TrimSpace(in.Agent)
	if agent == "" {
		return models.AgentSale{}, fuel.Reconciliation{}, fmt.Errorf("%w: agent is required", fuel.ErrInvalidInput)
	}

	rec, err := fuel.Reconcile(in.UnitPrice, in.Total, in.Quantity)
	if err != nil {
		return models.AgentSale{}, fuel.Reconciliation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sale := models.AgentSale{
		Date:      s.dateOrToday(in.Date),
		Agent:     agent,
		Contact:   strings.TrimSpace(in.Contact),
		Quantity:  rec.Volume,
		UnitPrice: in.UnitPrice,
		Total:     rec.Amount,
		Commune:   strings.TrimSpace(in.Commune),
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.store.AppendAgentSale(ctx, sale); err != nil {
		return models.AgentSale{}, fuel.Reconciliation{}, fmt.Errorf("persist agent sale: %w", err)
	}
	s.agentSales = append(s.agentSales, sale)

	return sale, rec, nil
}

// Reset wipes one ledger, store first. "tank" resets both deliveries and sales.
// A table whose rows were cleared is cleared in memory too, even when its
// header row could not be restored. When clearing fails, the table is
// reloaded from the store so the session matches what the store holds.
func (s *Service) Reset(ctx context.Context, name string) error {
	var tables []records.Table
	switch name {
	case LedgerPurchases:
		tables = []records.Table{records.PurchasesTable}
	case LedgerTank:
		tables = []records.Table{records.DeliveriesTable, records.SalesTable}
	case records.DeliveriesTable.Name, records.SalesTable.Name, records.AgentSalesTable.Name:
		t, _ := records.TableByName(name)
		tables = []records.Table{t}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLedger, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, t := range tables {
		err := s.store.Reset(ctx, t)
		if err != nil && !errors.Is(err, records.ErrHeaderNotRestored) {
			s.reload(ctx, t)
			errs = append(errs, err)
			break
		}

		s.clear(t)
		if err != nil {
			s.logger.Warn("ledger reset without header", zap.String("table", t.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		s.logger.Info("ledger reset", zap.String("table", t.Name))
	}
	return errors.Join(errs...)
}

func (s *Service) clear(t records.Table) {
	switch t.Name {
	case records.PurchasesTable.Name:
		s.purchases = nil
	case records.DeliveriesTable.Name:
		s.deliveries = nil
	case records.SalesTable.Name:
		s.sales = nil
	case records.AgentSalesTable.Name:
		s.agentSales = nil
	}
}

// reload re-reads one table after a failed reset. Load issues were already
// reported, so only the records are replaced.
func (s *Service) reload(ctx context.Context, t records.Table) {
	var err error
	switch t.Name {
	case records.PurchasesTable.Name:
		var recs []models.PurchaseRecord
		if recs, _, err = s.loadPurchases(ctx); err == nil {
			s.purchases = recs
		}
	case records.DeliveriesTable.Name:
		var recs []models.DeliveryRecord
		if recs, _, err = s.loadDeliveries(ctx); err == nil {
			s.deliveries = recs
		}
	case records.SalesTable.Name:
		var recs []models.SalesRecord
		if recs, _, err = s.loadSales(ctx); err == nil {
			s.sales = recs
		}
	case records.AgentSalesTable.Name:
		var recs []models.AgentSale
		if recs, _, err = s.store.LoadAgentSales(ctx); err == nil {
			s.agentSales = recs
		}
	}
	if err != nil {
		s.logger.Error("reload after failed reset", zap.String("table", t.Name), zap.Error(err))
	}
}

// Parameters returns the current operator parameters.
func (s *Service) Parameters() models.Parameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// UpdateParameters replaces the operator parameters after validation.
func (s *Service) UpdateParameters(p models.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.params = p
	s.mu.Unlock()

	s.logger.Info("parameters updated",
		zap.String("initial_stock", p.InitialStock.String()),
		zap.String("unit_price", p.UnitPrice.String()),
		zap.String("threshold", p.Threshold().String()))
	return nil
}

// Ledger recomputes the purchase ledger rows.
func (s *Service) Ledger() []fuel.LedgerRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledgerRows()
}

// Summary recomputes the purchase ledger summary.
func (s *Service) Summary() fuel.StockSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fuel.Summarize(s.ledgerRows(), s.params)
}

// Tank recomputes the two-ledger tank rows.
func (s *Service) Tank() []fuel.TankRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tankRows()
}

// TankSummary recomputes the tank summary.
func (s *Service) TankSummary() fuel.TankSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tankSummary(s.tankRows())
}

// Sales returns a copy of the tank sales ledger.
func (s *Service) Sales() []models.SalesRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SalesRecord(nil), s.sales...)
}

// AgentSales returns a copy of the commercial sales ledger.
func (s *Service) AgentSales() []models.AgentSale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AgentSale(nil), s.agentSales...)
}

// Issues returns the problems found during the last load.
func (s *Service) Issues() []records.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]records.Issue(nil), s.issues...)
}

func (s *Service) reconcile(in PurchaseInput) (models.PurchaseRecord, fuel.Reconciliation, error) {
	unitPrice := in.UnitPrice
	if unitPrice.IsNegative() {
		return models.PurchaseRecord{}, fuel.Reconciliation{}, fmt.Errorf("%w: unit price must be > 0", fuel.ErrInvalidInput)
	}
	if unitPrice.IsZero() {
		unitPrice = s.params.UnitPrice
	}

	rec, err := fuel.Reconcile(unitPrice, in.Amount, in.Volume)
	if err != nil {
		return models.PurchaseRecord{}, fuel.Reconciliation{}, err
	}

	record := models.PurchaseRecord{
		Date:      s.dateOrToday(in.Date),
		AssetID:   strings.TrimSpace(in.AssetID),
		UnitPrice: unitPrice,
		Amount:    rec.Amount,
		Volume:    rec.Volume,
	}
	return record, rec, nil
}

func (s *Service) dateOrToday(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) ledgerRows() []fuel.LedgerRow {
	return fuel.ComputeLedger(s.purchases, s.params.InitialStock, s.params.Threshold())
}

func (s *Service) tankRows() []fuel.TankRow {
	return fuel.ComputeTank(fuel.SortByDate(s.deliveries), s.sales, s.params.InitialStock, s.params.Threshold())
}

func (s *Service) tankSummary(rows []fuel.TankRow) fuel.TankSummary {
	return fuel.SummarizeTank(rows, s.sales, s.params.InitialStock, s.params.Threshold())
}

func (s *Service) tankAlert(before, after []fuel.TankRow) *Alert {
	if len(after) == 0 {
		return nil
	}
	var prev fuel.AlertStatus
	if len(before) > 0 {
		prev = before[len(before)-1].Alert
	}
	last := after[len(after)-1]
	if !crossed(prev, last.Alert) {
		return nil
	}
	return &Alert{Ledger: LedgerTank, Date: last.Delivery.Date, AssetID: last.Delivery.AssetID, ClosingStock: last.ClosingStock, Threshold: s.params.Threshold()}
}

func (s *Service) notify(alert *Alert) {
	if alert == nil {
		return
	}
	s.logger.Warn("stock below safety threshold",
		zap.String("ledger", alert.Ledger),
		zap.String("closing_stock", alert.ClosingStock.String()),
		zap.String("threshold", alert.Threshold.String()))

	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()
	if notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := notifier.NotifyLowStock(ctx, *alert); err != nil {
		s.logger.Error("failed to send low stock alert", zap.Error(err))
	}
}

func lastAlert(rows []fuel.LedgerRow) fuel.AlertStatus {
	if len(rows) == 0 {
		return ""
	}
	return rows[len(rows)-1].Alert
}

// crossed reports a transition into ALERT.
func crossed(before, after fuel.AlertStatus) bool {
	return after == fuel.AlertAlarm && before != fuel.AlertAlarm
}

// rowFor finds the row of a freshly appended record: the last row sharing its date.
func rowFor(rows []fuel.LedgerRow, record models.PurchaseRecord) fuel.LedgerRow {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Record.Date.Equal(record.Date) {
			return rows[i]
		}
	}
	return fuel.LedgerRow{}
}
