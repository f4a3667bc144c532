package sheetrepo

import "context"

// Backend is the raw cell transport a Repository runs on. Implementations
// exist for Google Sheets, local xlsx files and memory.
type Backend interface {
	// Values reads the block addressed by ref. Trailing empty cells and
	// rows may be omitted.
	Values(ctx context.Context, ref RangeRef) ([][]string, error)

	// Append writes rows after the last non-empty row of ref.Table.
	Append(ctx context.Context, ref RangeRef, rows [][]string) error

	// Update overwrites the cells starting at the origin of ref.
	Update(ctx context.Context, ref RangeRef, rows [][]string) error

	// BatchUpdate applies several Update calls in one round trip.
	BatchUpdate(ctx context.Context, updates []CellUpdate) error

	// DeleteRow removes one 1-based physical row, shifting later rows up.
	DeleteRow(ctx context.Context, table string, row int) error
}

// CellUpdate is one range overwrite of a batch.
type CellUpdate struct {
	Range  RangeRef
	Values [][]string
}
