package sheetrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Repository maps spreadsheet tables to records. It keeps no index and no
// state about the data: every operation re-reads what it needs.
//
// Writers locate rows with a read followed by a write. Two writers racing on
// the same table can interleave between those steps; callers that need a
// single writer wrap the sequence in WithTableLock.
type Repository struct {
	backend Backend
	logger  *zap.Logger
	schemas *xsync.MapOf[string, Schema]
	locks   *xsync.MapOf[string, *sync.Mutex]
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for write tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSchemas registers table schemas at construction.
func WithSchemas(schemas ...Schema) Option {
	return func(r *Repository) {
		for _, s := range schemas {
			r.RegisterSchema(s)
		}
	}
}

// New creates a repository over backend.
func New(backend Backend, opts ...Option) *Repository {
	r := &Repository{
		backend: backend,
		logger:  zap.NewNop(),
		schemas: xsync.NewMapOf[string, Schema](),
		locks:   xsync.NewMapOf[string, *sync.Mutex](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterSchema declares the expected fields of a table. Reads and writes
// of that table fail with ErrSchemaMismatch when the header row drifts.
func (r *Repository) RegisterSchema(s Schema) {
	r.schemas.Store(s.Table, s)
}

// FetchTable returns the records of a table or range. An empty range yields
// an empty slice.
func (r *Repository) FetchTable(ctx context.Context, tableOrRange string) ([]Record, error) {
	t, err := r.Read(ctx, tableOrRange)
	if err != nil {
		return nil, err
	}
	return t.Records, nil
}

// Read is FetchTable with the header row kept.
func (r *Repository) Read(ctx context.Context, tableOrRange string) (*Table, error) {
	ref, err := ParseRange(tableOrRange)
	if err != nil {
		return nil, err
	}
	return r.read(ctx, ref)
}

func (r *Repository) read(ctx context.Context, ref RangeRef) (*Table, error) {
	values, err := r.backend.Values(ctx, ref)
	if err != nil {
		return nil, unavailable("read", ref, err)
	}
	headers, records := MapRows(values)
	if ref.FullWidth() && len(headers) > 0 {
		if err := r.checkSchema(ref.Table, headers); err != nil {
			return nil, err
		}
	}
	return &Table{Name: ref.Table, Headers: headers, Records: records}, nil
}

func (r *Repository) checkSchema(table string, headers []string) error {
	s, ok := r.schemas.Load(table)
	if !ok {
		return nil
	}
	return s.Check(headers)
}

// Headers reads row 1 of table.
func (r *Repository) Headers(ctx context.Context, table string) ([]string, error) {
	t, err := r.read(ctx, HeaderRange(table))
	if err != nil {
		return nil, err
	}
	return t.Headers, nil
}

// AppendRecord appends one row built from fields by header lookup. Fields
// the header row does not carry are rejected; headers without a value are
// written blank.
func (r *Repository) AppendRecord(ctx context.Context, table string, fields map[string]string) error {
	headers, err := r.Headers(ctx, table)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return &SchemaError{Table: table, Message: "table has no header row"}
	}

	known := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		known[h] = struct{}{}
	}
	for k := range fields {
		if _, ok := known[k]; !ok || k == "" {
			return &SchemaError{Table: table, Field: k, Message: "not a column of the table"}
		}
	}

	row := make([]string, len(headers))
	for i, h := range headers {
		if h != "" {
			row[i] = fields[h]
		}
	}
	ref := ColumnsRange(table, 1, len(headers))
	if err := r.backend.Append(ctx, ref, [][]string{row}); err != nil {
		return unavailable("append", ref, err)
	}
	r.logger.Debug("record appended", zap.String("table", table))
	return nil
}

// UpdateRange overwrites the cells addressed by cellRange, e.g. "B3" or
// "A5:D5", relative to table. The grid must be rectangular and must fit a
// bounded range exactly.
func (r *Repository) UpdateRange(ctx context.Context, table, cellRange string, values [][]string) error {
	ref, err := ParseRange(quoteTable(table) + "!" + cellRange)
	if err != nil {
		return err
	}
	if err := checkShape(ref, values); err != nil {
		return err
	}
	if err := r.backend.Update(ctx, ref, values); err != nil {
		return unavailable("update", ref, err)
	}
	return nil
}

func checkShape(ref RangeRef, values [][]string) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: no values for %s", ErrInvalidRange, ref)
	}
	width := len(values[0])
	for _, row := range values {
		if len(row) != width {
			return fmt.Errorf("%w: values for %s are not rectangular", ErrInvalidRange, ref)
		}
	}
	cols, rows := ref.Size()
	if (cols > 0 && cols != width) || (rows > 0 && rows != len(values)) {
		return fmt.Errorf("%w: %dx%d values do not fit %s", ErrInvalidRange, len(values), width, ref)
	}
	return nil
}

// Locate returns the first record accepted by match with its index.
func (r *Repository) Locate(ctx context.Context, table string, match Match) (*Table, int, error) {
	t, err := r.read(ctx, TableRange(table))
	if err != nil {
		return nil, -1, err
	}
	idx := t.Find(match)
	if idx < 0 {
		return t, -1, fmt.Errorf("%w in table %q", ErrRecordNotFound, table)
	}
	return t, idx, nil
}

// PointUpdate overwrites the given fields of the first record accepted by
// match. Only the affected cells are written.
func (r *Repository) PointUpdate(ctx context.Context, table string, match Match, updates map[string]string) error {
	t, idx, err := r.Locate(ctx, table, match)
	if err != nil {
		return err
	}
	cells, err := rowCells(t, idx, updates)
	if err != nil {
		return err
	}
	if err := r.writeCells(ctx, cells); err != nil {
		return err
	}
	r.logger.Debug("record updated",
		zap.String("table", table),
		zap.Int("row", RowNumber(idx)),
		zap.Int("cells", len(cells)),
	)
	return nil
}

// UpdateWhere applies updates to every matching record in one batch and
// returns how many records were touched.
func (r *Repository) UpdateWhere(ctx context.Context, table string, match Match, updates map[string]string) (int, error) {
	t, err := r.read(ctx, TableRange(table))
	if err != nil {
		return 0, err
	}
	indexes := t.FindAll(match)
	if len(indexes) == 0 {
		return 0, nil
	}
	var cells []CellUpdate
	for _, idx := range indexes {
		rc, err := rowCells(t, idx, updates)
		if err != nil {
			return 0, err
		}
		cells = append(cells, rc...)
	}
	if len(cells) == 0 {
		return len(indexes), nil
	}
	if err := r.backend.BatchUpdate(ctx, cells); err != nil {
		return 0, unavailable("batch update", TableRange(table), err)
	}
	return len(indexes), nil
}

// DeleteWhere removes the physical row of the first matching record.
func (r *Repository) DeleteWhere(ctx context.Context, table string, match Match) error {
	_, idx, err := r.Locate(ctx, table, match)
	if err != nil {
		return err
	}
	row := RowNumber(idx)
	if err := r.backend.DeleteRow(ctx, table, row); err != nil {
		return unavailable("delete row", RowRange(table, row, 0, 0), err)
	}
	r.logger.Debug("record deleted", zap.String("table", table), zap.Int("row", row))
	return nil
}

// ClearWhere blanks every header cell of the first matching record, leaving
// the row in place.
func (r *Repository) ClearWhere(ctx context.Context, table string, match Match) error {
	t, idx, err := r.Locate(ctx, table, match)
	if err != nil {
		return err
	}
	ref := RowRange(table, RowNumber(idx), 1, len(t.Headers))
	blank := make([]string, len(t.Headers))
	if err := r.backend.Update(ctx, ref, [][]string{blank}); err != nil {
		return unavailable("update", ref, err)
	}
	return nil
}

func rowCells(t *Table, idx int, updates map[string]string) ([]CellUpdate, error) {
	row := RowNumber(idx)
	cells := make([]CellUpdate, 0, len(updates))
	for field, value := range updates {
		col := t.Column(field)
		if col == 0 {
			return nil, &SchemaError{Table: t.Name, Field: field, Message: "not a column of the table"}
		}
		cells = append(cells, CellUpdate{
			Range:  CellRange(t.Name, col, row),
			Values: [][]string{{value}},
		})
	}
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].Range.StartCol < cells[j].Range.StartCol
	})
	return cells, nil
}

func (r *Repository) writeCells(ctx context.Context, cells []CellUpdate) error {
	switch len(cells) {
	case 0:
		return nil
	case 1:
		if err := r.backend.Update(ctx, cells[0].Range, cells[0].Values); err != nil {
			return unavailable("update", cells[0].Range, err)
		}
	default:
		if err := r.backend.BatchUpdate(ctx, cells); err != nil {
			return unavailable("batch update", TableRange(cells[0].Range.Table), err)
		}
	}
	return nil
}

// WithTableLock runs fn while holding the process-local write lock of table.
func (r *Repository) WithTableLock(ctx context.Context, table string, fn func(ctx context.Context) error) error {
	mu, _ := r.locks.LoadOrStore(table, &sync.Mutex{})
	mu.Lock()
	defer mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
