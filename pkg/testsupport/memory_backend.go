package testsupport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// ErrBackendDown is a ready-made transport failure for FailOn.
var ErrBackendDown = errors.New("testsupport: backend down")

// MemoryBackend is an in-memory sheetrepo.Backend that records every call.
type MemoryBackend struct {
	mu       sync.Mutex
	tables   map[string][][]string
	calls    []string
	failures map[string]error
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tables:   make(map[string][][]string),
		failures: make(map[string]error),
	}
}

// NewMemoryBackendWith creates a backend seeded with tables.
func NewMemoryBackendWith(tables map[string][][]string) *MemoryBackend {
	m := NewMemoryBackend()
	for name, rows := range tables {
		m.SetTable(name, rows)
	}
	return m
}

// SetTable replaces the full grid of a table, header row included.
func (m *MemoryBackend) SetTable(name string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = copyGrid(rows)
}

// Table returns a copy of the stored grid.
func (m *MemoryBackend) Table(name string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyGrid(m.tables[name])
}

// FailOn makes every call of op ("Values", "Append", "Update",
// "BatchUpdate", "DeleteRow") return err. A nil err clears the failure.
func (m *MemoryBackend) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns the recorded calls, formatted as "Op:detail".
func (m *MemoryBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount counts recorded calls of op.
func (m *MemoryBackend) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, op+":") {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (m *MemoryBackend) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *MemoryBackend) record(op, detail string) error {
	m.calls = append(m.calls, op+":"+detail)
	return m.failures[op]
}

func (m *MemoryBackend) Values(_ context.Context, ref sheetrepo.RangeRef) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Values", ref.String()); err != nil {
		return nil, err
	}
	grid, ok := m.tables[ref.Table]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s", ref)
	}
	return sheetrepo.ClipValues(grid, ref), nil
}

func (m *MemoryBackend) Append(_ context.Context, ref sheetrepo.RangeRef, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Append", ref.String()+"="+formatGrid(rows)); err != nil {
		return err
	}
	grid, ok := m.tables[ref.Table]
	if !ok {
		return fmt.Errorf("unable to parse range: %s", ref)
	}
	for len(grid) > 0 && isBlank(grid[len(grid)-1]) {
		grid = grid[:len(grid)-1]
	}
	col, _ := ref.Origin()
	for _, row := range rows {
		grid = writeRow(grid, len(grid)+1, col, row)
	}
	m.tables[ref.Table] = grid
	return nil
}

func (m *MemoryBackend) Update(_ context.Context, ref sheetrepo.RangeRef, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Update", ref.String()+"="+formatGrid(rows)); err != nil {
		return err
	}
	return m.update(ref, rows)
}

func (m *MemoryBackend) BatchUpdate(_ context.Context, updates []sheetrepo.CellUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parts := make([]string, len(updates))
	for i, u := range updates {
		parts[i] = u.Range.String() + "=" + formatGrid(u.Values)
	}
	if err := m.record("BatchUpdate", strings.Join(parts, ",")); err != nil {
		return err
	}
	for _, u := range updates {
		if err := m.update(u.Range, u.Values); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryBackend) DeleteRow(_ context.Context, table string, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteRow", fmt.Sprintf("%s:%d", table, row)); err != nil {
		return err
	}
	grid, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("unable to parse range: %s", table)
	}
	if row < 1 || row > len(grid) {
		return nil
	}
	m.tables[table] = append(grid[:row-1], grid[row:]...)
	return nil
}

func (m *MemoryBackend) update(ref sheetrepo.RangeRef, rows [][]string) error {
	grid, ok := m.tables[ref.Table]
	if !ok {
		return fmt.Errorf("unable to parse range: %s", ref)
	}
	col, row := ref.Origin()
	for i, r := range rows {
		grid = writeRow(grid, row+i, col, r)
	}
	m.tables[ref.Table] = grid
	return nil
}

func writeRow(grid [][]string, row, col int, values []string) [][]string {
	for len(grid) < row {
		grid = append(grid, nil)
	}
	target := grid[row-1]
	for len(target) < col-1+len(values) {
		target = append(target, "")
	}
	copy(target[col-1:], values)
	grid[row-1] = target
	return grid
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func copyGrid(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func formatGrid(rows [][]string) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = "[" + strings.Join(r, "|") + "]"
	}
	return strings.Join(parts, "")
}
