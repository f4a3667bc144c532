package sheetrepo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DataRowOffset converts a 0-based record index into a 1-based physical
// row: row 1 holds the headers, so record 0 lives on row 2.
const DataRowOffset = 2

// RowNumber returns the physical row of the record at index.
func RowNumber(index int) int {
	return index + DataRowOffset
}

// RangeRef addresses a rectangular block of one table. Column and row bounds
// are 1-based; zero means unbounded on that side.
type RangeRef struct {
	Table    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// TableRange addresses a whole table.
func TableRange(table string) RangeRef {
	return RangeRef{Table: table}
}

// HeaderRange addresses row 1 of a table.
func HeaderRange(table string) RangeRef {
	return RangeRef{Table: table, StartRow: 1, EndRow: 1}
}

// ColumnsRange addresses whole columns from..to (both 1-based).
func ColumnsRange(table string, from, to int) RangeRef {
	return RangeRef{Table: table, StartCol: from, EndCol: to}
}

// CellRange addresses one cell.
func CellRange(table string, col, row int) RangeRef {
	return RangeRef{Table: table, StartCol: col, StartRow: row, EndCol: col, EndRow: row}
}

// RowRange addresses columns from..to of a single physical row.
func RowRange(table string, row, from, to int) RangeRef {
	return RangeRef{Table: table, StartCol: from, StartRow: row, EndCol: to, EndRow: row}
}

// Whole reports whether the reference covers the full table.
func (r RangeRef) Whole() bool {
	return r.StartCol == 0 && r.StartRow == 0 && r.EndCol == 0 && r.EndRow == 0
}

// FullWidth reports whether every column of the table is in range.
func (r RangeRef) FullWidth() bool {
	return r.StartCol == 0 && r.EndCol == 0
}

// Origin returns the top-left cell of the range, defaulting unbounded sides to 1.
func (r RangeRef) Origin() (col, row int) {
	col, row = r.StartCol, r.StartRow
	if col == 0 {
		col = 1
	}
	if row == 0 {
		row = 1
	}
	return col, row
}

// Size returns the number of columns and rows spanned, or zero for an
// unbounded dimension.
func (r RangeRef) Size() (cols, rows int) {
	if r.StartCol > 0 && r.EndCol > 0 {
		cols = r.EndCol - r.StartCol + 1
	}
	if r.StartRow > 0 && r.EndRow > 0 {
		rows = r.EndRow - r.StartRow + 1
	}
	return cols, rows
}

// String renders the reference in A1 notation, e.g. usuarios!B3 or ventas!A:H.
func (r RangeRef) String() string {
	table := quoteTable(r.Table)
	if r.Whole() {
		return table
	}
	start := cellName(r.StartCol, r.StartRow)
	end := cellName(r.EndCol, r.EndRow)
	if end == "" || (end == start && r.StartCol > 0 && r.StartRow > 0) {
		return table + "!" + start
	}
	return table + "!" + start + ":" + end
}

func cellName(col, row int) string {
	var b strings.Builder
	if col > 0 {
		name, err := excelize.ColumnNumberToName(col)
		if err == nil {
			b.WriteString(name)
		}
	}
	if row > 0 {
		b.WriteString(strconv.Itoa(row))
	}
	return b.String()
}

func quoteTable(table string) string {
	for _, r := range table {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "'" + strings.ReplaceAll(table, "'", "''") + "'"
		}
	}
	return table
}

var cellPattern = regexp.MustCompile(`^([A-Za-z]*)([0-9]*)$`)

// ParseRange parses "table" or "table!A1:B2" style references. Whole-column
// (A:Z) and whole-row (1:1) forms are accepted.
func ParseRange(s string) (RangeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RangeRef{}, fmt.Errorf("%w: empty reference", ErrInvalidRange)
	}

	table, cells := s, ""
	if i := strings.LastIndex(s, "!"); i >= 0 {
		table, cells = s[:i], s[i+1:]
	}
	table = unquoteTable(table)
	if table == "" {
		return RangeRef{}, fmt.Errorf("%w: %q has no table name", ErrInvalidRange, s)
	}
	ref := RangeRef{Table: table}
	if cells == "" {
		return ref, nil
	}

	startPart, endPart, hasEnd := strings.Cut(cells, ":")
	var err error
	if ref.StartCol, ref.StartRow, err = parseCell(startPart); err != nil {
		return RangeRef{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	if !hasEnd {
		ref.EndCol, ref.EndRow = ref.StartCol, ref.StartRow
		return ref, nil
	}
	if ref.EndCol, ref.EndRow, err = parseCell(endPart); err != nil {
		return RangeRef{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
	}
	if ref.EndCol > 0 && ref.EndCol < ref.StartCol || ref.EndRow > 0 && ref.EndRow < ref.StartRow {
		return RangeRef{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidRange, s)
	}
	return ref, nil
}

func parseCell(s string) (col, row int, err error) {
	m := cellPattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, 0, fmt.Errorf("bad cell %q", s)
	}
	if m[1] != "" {
		if col, err = excelize.ColumnNameToNumber(m[1]); err != nil {
			return 0, 0, err
		}
	}
	if m[2] != "" {
		if row, err = strconv.Atoi(m[2]); err != nil || row < 1 {
			return 0, 0, fmt.Errorf("bad row %q", m[2])
		}
	}
	return col, row, nil
}

func unquoteTable(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

// ClipValues cuts the block addressed by ref out of a full table grid, with
// the same trimming a spreadsheet API applies: trailing empty cells of each
// row and trailing empty rows are dropped.
func ClipValues(grid [][]string, ref RangeRef) [][]string {
	c0, r0 := ref.Origin()
	r1 := len(grid)
	if ref.EndRow > 0 && ref.EndRow < r1 {
		r1 = ref.EndRow
	}

	out := make([][]string, 0)
	for r := r0; r <= r1; r++ {
		src := grid[r-1]
		c1 := len(src)
		if ref.EndCol > 0 && ref.EndCol < c1 {
			c1 = ref.EndCol
		}
		var row []string
		if c0 <= c1 {
			row = append(row, src[c0-1:c1]...)
		}
		out = append(out, trimRow(row))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func trimRow(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return append([]string{}, row[:n]...)
}
