package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/repository/mongodb"
)

const dateLayout = "2006-01-02"

// ErrSnapshotsDisabled is returned when no snapshot store is configured.
var ErrSnapshotsDisabled = errors.New("stock snapshots are disabled")

// Source exposes the computed ledgers of the depot session.
type Source interface {
	Parameters() models.Parameters
	Ledger() []fuel.LedgerRow
	Summary() fuel.StockSummary
	TankSummary() fuel.TankSummary
	AgentSales() []models.AgentSale
}

// Service turns ledger state into reports, WhatsApp summaries and daily snapshots.
type Service struct {
	source    Source
	snapshots mongodb.Repository
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new reporting service instance. snapshots may be nil.
func NewService(source Source, snapshots mongodb.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, snapshots: snapshots, logger: logger, now: time.Now}
}

// AssetReport aggregates purchased volume per asset and per month.
func (s *Service) AssetReport() fuel.Summary {
	return fuel.VolumeByAsset(s.source.Ledger())
}

// AgentReport computes the commercial sales statistics.
func (s *Service) AgentReport() fuel.AgentStatistics {
	return fuel.AgentSalesStatistics(s.source.AgentSales())
}

// BuildSnapshot captures both ledgers as of date.
func (s *Service) BuildSnapshot(date time.Time) models.StockSnapshot {
	params := s.source.Parameters()
	summary := s.source.Summary()
	tank := s.source.TankSummary()

	snap := models.StockSnapshot{
		Date:            truncateDay(date),
		InitialStock:    params.InitialStock.InexactFloat64(),
		SafetyThreshold: params.Threshold().InexactFloat64(),
		UnitPrice:       params.UnitPrice.InexactFloat64(),
		PurchaseCount:   summary.Records,
		TotalVolume:     summary.TotalVolume.InexactFloat64(),
		TotalAmount:     summary.TotalAmount.InexactFloat64(),
		ClippedRows:     tank.ClippedRows,
		CreatedAt:       s.now().UTC(),
	}
	if summary.CurrentClosingStock != nil {
		v := summary.CurrentClosingStock.InexactFloat64()
		snap.ClosingStock = &v
		snap.LedgerAlert = string(summary.CurrentAlert)
	}
	if tank.CurrentClosingStock != nil {
		v := tank.CurrentClosingStock.InexactFloat64()
		snap.TankClosingStock = &v
		snap.TankAlert = string(tank.CurrentAlert)
	}
	return snap
}

// SaveSnapshot builds and stores the snapshot of date.
func (s *Service) SaveSnapshot(ctx context.Context, date time.Time) (models.StockSnapshot, error) {
	if s.snapshots == nil {
		return models.StockSnapshot{}, ErrSnapshotsDisabled
	}

	snap := s.BuildSnapshot(date)
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		return models.StockSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Info("stock snapshot saved", zap.String("date", snap.Date.Format(dateLayout)), zap.String("ledger_alert", snap.LedgerAlert))
	return snap, nil
}

// ListSnapshots returns the most recent snapshots first.
func (s *Service) ListSnapshots(ctx context.Context, limit int64) ([]models.StockSnapshot, error) {
	if s.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}
	return s.snapshots.ListSnapshots(ctx, limit)
}

// StockStatus is the short answer to a /stock request.
func (s *Service) StockStatus() string {
	summary := s.source.Summary()
	tank := s.source.TankSummary()

	var sb strings.Builder
	sb.WriteString("Stock status\n")
	writeStock(&sb, "Purchases ledger", summary.CurrentClosingStock, summary.CurrentAlert)
	writeStock(&sb, "Tank", tank.CurrentClosingStock, tank.CurrentAlert)
	sb.WriteString(fmt.Sprintf("Safety threshold: %s L", litres(summary.SafetyThreshold)))
	return sb.String()
}

// DailyReport formats the end-of-day message sent to the depot manager.
func (s *Service) DailyReport(date time.Time) string {
	day := truncateDay(date)
	rows := s.source.Ledger()
	summary := s.source.Summary()
	tank := s.source.TankSummary()

	var todayVolume, todayAmount decimal.Decimal
	var todayCount int
	for _, r := range rows {
		if r.Record.Date.Equal(day) {
			todayVolume = todayVolume.Add(r.Record.Volume)
			todayAmount = todayAmount.Add(r.Record.Amount)
			todayCount++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Daily depot report (%s)\n\n", day.Format(dateLayout)))

	if todayCount == 0 {
		sb.WriteString("No purchase recorded today.\n")
	} else {
		sb.WriteString(fmt.Sprintf("Purchases today: %d for %s L (%s)\n", todayCount, litres(todayVolume), money(todayAmount)))
	}
	sb.WriteString(fmt.Sprintf("Total purchased: %s L over %d records\n", litres(summary.TotalVolume), summary.Records))
	writeStock(&sb, "Closing stock", summary.CurrentClosingStock, summary.CurrentAlert)

	if tank.CurrentClosingStock != nil {
		writeStock(&sb, "Tank stock", tank.CurrentClosingStock, tank.CurrentAlert)
		sb.WriteString(fmt.Sprintf("Tank sold: %s L, collected %s\n", litres(tank.TotalSold), money(tank.TotalCollected)))
		if tank.ClippedRows > 0 {
			sb.WriteString(fmt.Sprintf("Warning: %d tank rows sold more than available stock.\n", tank.ClippedRows))
		}
	}

	assets := fuel.VolumeByAsset(rows)
	if assets.Best != nil {
		sb.WriteString(fmt.Sprintf("Top asset: %s (%s L)\n", assets.Best.Key, litres(assets.Best.Sum)))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeStock(sb *strings.Builder, label string, stock *decimal.Decimal, alert fuel.AlertStatus) {
	if stock == nil {
		sb.WriteString(fmt.Sprintf("%s: no data yet\n", label))
		return
	}
	line := fmt.Sprintf("%s: %s L", label, litres(*stock))
	if alert == fuel.AlertAlarm {
		line += " ⚠️ below safety threshold"
	}
	sb.WriteString(line + "\n")
}

func litres(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func money(v decimal.Decimal) string {
	return v.StringFixed(0) + " FCFA"
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
