package sheetsbackend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
	"github.com/xuri/excelize/v2"
)

// XLSX is a sheetrepo.Backend over a local workbook. Each worksheet is a
// table. Every write is saved to disk before it returns.
type XLSX struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

var _ sheetrepo.Backend = (*XLSX)(nil)

// OpenXLSX opens the workbook at path, creating an empty one if the file
// does not exist.
func OpenXLSX(path string) (*XLSX, error) {
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("sheetsbackend: create %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("sheetsbackend: open %s: %w", path, err)
	}
	return &XLSX{path: path, file: f}, nil
}

// Close releases the workbook.
func (x *XLSX) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.file.Close()
}

// CreateTable adds a worksheet with a header row, replacing nothing if the
// sheet already exists.
func (x *XLSX) CreateTable(name string, headers []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	idx, err := x.file.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	if _, err := x.file.NewSheet(name); err != nil {
		return err
	}
	if err := x.setRow(name, 1, 1, headers); err != nil {
		return err
	}
	return x.file.SaveAs(x.path)
}

// SetTable replaces the content of a worksheet, creating it when missing.
func (x *XLSX) SetTable(name string, rows [][]string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	idx, err := x.file.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := x.file.NewSheet(name); err != nil {
			return err
		}
	} else {
		existing, err := x.file.GetRows(name)
		if err != nil {
			return err
		}
		for r := len(existing); r >= 1; r-- {
			if err := x.file.RemoveRow(name, r); err != nil {
				return err
			}
		}
	}
	for i, r := range rows {
		if err := x.setRow(name, i+1, 1, r); err != nil {
			return err
		}
	}
	return x.file.SaveAs(x.path)
}

func (x *XLSX) Values(_ context.Context, ref sheetrepo.RangeRef) ([][]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	grid, err := x.file.GetRows(ref.Table)
	if err != nil {
		return nil, err
	}
	return sheetrepo.ClipValues(grid, ref), nil
}

func (x *XLSX) Append(_ context.Context, ref sheetrepo.RangeRef, rows [][]string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	grid, err := x.file.GetRows(ref.Table)
	if err != nil {
		return err
	}
	last := len(grid)
	for last > 0 && blank(grid[last-1]) {
		last--
	}
	col, _ := ref.Origin()
	for i, r := range rows {
		if err := x.setRow(ref.Table, last+1+i, col, r); err != nil {
			return err
		}
	}
	return x.file.Save()
}

func (x *XLSX) Update(_ context.Context, ref sheetrepo.RangeRef, rows [][]string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.write(ref, rows); err != nil {
		return err
	}
	return x.file.Save()
}

func (x *XLSX) BatchUpdate(_ context.Context, updates []sheetrepo.CellUpdate) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, u := range updates {
		if err := x.write(u.Range, u.Values); err != nil {
			return err
		}
	}
	return x.file.Save()
}

func (x *XLSX) DeleteRow(_ context.Context, table string, row int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.file.RemoveRow(table, row); err != nil {
		return err
	}
	return x.file.Save()
}

func (x *XLSX) write(ref sheetrepo.RangeRef, rows [][]string) error {
	idx, err := x.file.GetSheetIndex(ref.Table)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("sheet %s does not exist", ref.Table)
	}
	col, row := ref.Origin()
	for i, r := range rows {
		if err := x.setRow(ref.Table, row+i, col, r); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSX) setRow(sheet string, row, col int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	cells := append([]string(nil), values...)
	return x.file.SetSheetRow(sheet, cell, &cells)
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
