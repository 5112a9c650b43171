// Package sheetstest provides an in-memory sheets.Repository for tests.
package sheetstest

import (
	"context"
	"strings"
	"sync"
)

// Memory keeps rows per sheet name. FailWrites makes every write and clear
// fail with the given error.
type Memory struct {
	mu         sync.Mutex
	sheets     map[string][][]interface{}
	FailWrites error
	FailReads  error
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][][]interface{})}
}

// WriteRow appends a copy of values to the sheet named in sheetRange.
func (m *Memory) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	name := sheetName(sheetRange)
	row := append([]interface{}(nil), values...)
	m.sheets[name] = append(m.sheets[name], row)
	return nil
}

// ReadRange returns the stored rows, or FailReads when it is set.
func (m *Memory) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	rows := m.sheets[sheetName(sheetRange)]
	out := make([][]interface{}, len(rows))
	copy(out, rows)
	return out, nil
}

// ClearRange drops every row of the sheet. It fails like a write.
func (m *Memory) ClearRange(_ context.Context, sheetRange string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.sheets, sheetName(sheetRange))
	return nil
}

// Rows returns a copy of the rows stored for sheetRange.
func (m *Memory) Rows(sheetRange string) [][]interface{} {
	rows, _ := m.ReadRange(context.Background(), sheetRange)
	return rows
}

// Seed replaces the content of a sheet.
func (m *Memory) Seed(sheetRange string, rows ...[]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheetName(sheetRange)] = rows
}

func sheetName(sheetRange string) string {
	name, _, _ := strings.Cut(sheetRange, "!")
	return name
}
