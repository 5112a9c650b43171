package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Repository stores each sheet of a range ("Sheet!A:E") in its own CSV file
// under a directory. It satisfies the same contract as the Google Sheets
// repository so the depot can run offline.
type Repository struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewRepository prepares dir and returns a CSV-backed repository.
func NewRepository(dir string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, errors.New("csv directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv directory %s: %w", dir, err)
	}
	return &Repository{dir: dir, logger: logger}, nil
}

// WriteRow appends one record to the sheet's file and syncs it to disk.
func (r *Repository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.pathFor(sheetRange)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	record := make([]string, len(values))
	for i, v := range values {
		if v != nil {
			record[i] = fmt.Sprint(v)
		}
	}

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("append row into %s: %w", sheetRange, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("append row into %s: %w", sheetRange, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}

	r.logger.Debug("row appended to csv", zap.String("range", sheetRange))
	return nil
}

// ReadRange returns every row of the sheet's file. A missing file reads as empty.
func (r *Repository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := r.pathFor(sheetRange)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]interface{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
		}
		row := make([]interface{}, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ClearRange truncates the sheet's file.
func (r *Repository) ClearRange(ctx context.Context, sheetRange string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.pathFor(sheetRange)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("clear range %s: %w", sheetRange, err)
	}

	r.logger.Info("csv range cleared", zap.String("range", sheetRange))
	return nil
}

func (r *Repository) pathFor(sheetRange string) (string, error) {
	sheet, _, _ := strings.Cut(sheetRange, "!")
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return "", fmt.Errorf("sheetRange must not be empty")
	}
	if strings.ContainsAny(sheet, `/\`) {
		return "", fmt.Errorf("invalid sheet name %q", sheet)
	}
	return filepath.Join(r.dir, sheet+".csv"), nil
}
