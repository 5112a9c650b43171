package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/repository/sheets"
)

// ErrHeaderNotRestored reports a reset that cleared a table but could not
// write its header row back. The rows are gone; the header is written again
// before the next append.
var ErrHeaderNotRestored = errors.New("table cleared but header not restored")

// Store maps depot records onto the rows of a flat record store.
type Store struct {
	repo   sheets.Repository
	logger *zap.Logger

	mu         sync.Mutex
	headerless map[string]bool
}

// NewStore wires a record store over a sheets-like repository.
func NewStore(repo sheets.Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, logger: logger, headerless: make(map[string]bool)}
}

// EnsureHeaders writes the header row of every empty table.
func (s *Store) EnsureHeaders(ctx context.Context) error {
	for _, t := range Tables {
		rows, err := s.repo.ReadRange(ctx, t.Range)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", t.Name, err)
		}
		if len(rows) > 0 {
			continue
		}
		if err := s.repo.WriteRow(ctx, t.Range, t.headerRow()); err != nil {
			return fmt.Errorf("write %s header: %w", t.Name, err)
		}
		s.setHeaderless(t, false)
		s.logger.Info("table header written", zap.String("table", t.Name))
	}
	return nil
}

// Reset wipes a table and restores its header row.
func (s *Store) Reset(ctx context.Context, t Table) error {
	if err := s.repo.ClearRange(ctx, t.Range); err != nil {
		return fmt.Errorf("reset %s: %w", t.Name, err)
	}
	if err := s.repo.WriteRow(ctx, t.Range, t.headerRow()); err != nil {
		s.setHeaderless(t, true)
		return fmt.Errorf("reset %s header: %w: %w", t.Name, ErrHeaderNotRestored, err)
	}
	s.setHeaderless(t, false)
	return nil
}

// AppendPurchase persists one purchase row.
func (s *Store) AppendPurchase(ctx context.Context, rec models.PurchaseRecord) error {
	return s.append(ctx, PurchasesTable, EncodePurchase(rec))
}

// AppendDelivery persists one tank delivery row.
func (s *Store) AppendDelivery(ctx context.Context, rec models.DeliveryRecord) error {
	return s.append(ctx, DeliveriesTable, EncodeDelivery(rec))
}

// AppendSale persists one tank sale row.
func (s *Store) AppendSale(ctx context.Context, rec models.SalesRecord) error {
	return s.append(ctx, SalesTable, EncodeSale(rec))
}

// AppendAgentSale persists one commercial sale row.
func (s *Store) AppendAgentSale(ctx context.Context, rec models.AgentSale) error {
	return s.append(ctx, AgentSalesTable, EncodeAgentSale(rec))
}

// LoadPurchases reads the purchases table. Rows with an unreadable date are
// skipped and reported.
func (s *Store) LoadPurchases(ctx context.Context) ([]PurchaseCells, []Issue, error) {
	return s.loadPurchaseLike(ctx, PurchasesTable, DecodePurchase)
}

// LoadDeliveries reads the tank deliveries table.
func (s *Store) LoadDeliveries(ctx context.Context) ([]PurchaseCells, []Issue, error) {
	return s.loadPurchaseLike(ctx, DeliveriesTable, DecodeDelivery)
}

// LoadSales reads the tank sales table.
func (s *Store) LoadSales(ctx context.Context) ([]SalesCells, []Issue, error) {
	rows, err := s.read(ctx, SalesTable)
	if err != nil {
		return nil, nil, err
	}

	out := make([]SalesCells, 0, len(rows))
	var issues []Issue
	for _, row := range rows {
		cells, err := DecodeSale(row.cells, row.index)
		if err != nil {
			issues = append(issues, s.skipped(SalesTable, row))
			continue
		}
		out = append(out, cells)
	}
	return out, issues, nil
}

// LoadAgentSales reads the commercial sales table.
func (s *Store) LoadAgentSales(ctx context.Context) ([]models.AgentSale, []Issue, error) {
	rows, err := s.read(ctx, AgentSalesTable)
	if err != nil {
		return nil, nil, err
	}

	out := make([]models.AgentSale, 0, len(rows))
	var issues []Issue
	for _, row := range rows {
		sale, rowIssues, err := DecodeAgentSale(row.cells, row.index)
		if err != nil {
			issues = append(issues, s.skipped(AgentSalesTable, row))
			continue
		}
		issues = append(issues, rowIssues...)
		out = append(out, sale)
	}
	return out, issues, nil
}

func (s *Store) loadPurchaseLike(ctx context.Context, t Table, decode func([]interface{}, int) (PurchaseCells, error)) ([]PurchaseCells, []Issue, error) {
	rows, err := s.read(ctx, t)
	if err != nil {
		return nil, nil, err
	}

	out := make([]PurchaseCells, 0, len(rows))
	var issues []Issue
	for _, row := range rows {
		cells, err := decode(row.cells, row.index)
		if err != nil {
			issues = append(issues, s.skipped(t, row))
			continue
		}
		out = append(out, cells)
	}
	return out, issues, nil
}

type storedRow struct {
	index int
	cells []interface{}
}

// read returns the data rows of a table with their 1-based sheet row
// number, header and blank rows excluded.
func (s *Store) read(ctx context.Context, t Table) ([]storedRow, error) {
	rows, err := s.repo.ReadRange(ctx, t.Range)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t.Name, err)
	}

	data := make([]storedRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isHeader(row, t) {
			continue
		}
		if isBlank(row) {
			continue
		}
		data = append(data, storedRow{index: i + 1, cells: row})
	}
	return data, nil
}

func (s *Store) append(ctx context.Context, t Table, values []interface{}) error {
	s.mu.Lock()
	missing := s.headerless[t.Name]
	s.mu.Unlock()
	if missing {
		if err := s.repo.WriteRow(ctx, t.Range, t.headerRow()); err != nil {
			return fmt.Errorf("restore %s header: %w", t.Name, err)
		}
		s.setHeaderless(t, false)
		s.logger.Info("table header restored", zap.String("table", t.Name))
	}
	if err := s.repo.WriteRow(ctx, t.Range, values); err != nil {
		return fmt.Errorf("append %s: %w", t.Name, err)
	}
	return nil
}

func (s *Store) setHeaderless(t Table, missing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if missing {
		s.headerless[t.Name] = true
		return
	}
	delete(s.headerless, t.Name)
}

func (s *Store) skipped(t Table, row storedRow) Issue {
	raw := fmt.Sprint(cellOr(row.cells, 0, ""))
	s.logger.Warn("skip stored row with invalid date", zap.String("table", t.Name), zap.Int("row", row.index), zap.String("value", raw))
	return Issue{Table: t.Name, Row: row.index, Column: t.Header[0], Raw: raw, Reason: "row skipped: unreadable date"}
}

func isHeader(row []interface{}, t Table) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(fmt.Sprint(row[0])), t.Header[0])
}

func isBlank(row []interface{}) bool {
	for _, c := range row {
		if c != nil && strings.TrimSpace(fmt.Sprint(c)) != "" {
			return false
		}
	}
	return true
}
