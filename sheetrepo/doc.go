// Package sheetrepo reads and writes spreadsheet tables as records.
//
// A table is a sheet whose first row holds field names. Every later row is
// mapped positionally onto those names. Record index i (0-based, header
// excluded) always lives on physical row RowNumber(i) = i + 2, and every
// writer derives row numbers through RowNumber.
//
// Writes are a locate-then-write sequence: the table is read in full, the
// first matching record is found by linear scan and only the affected cells
// are overwritten.
package sheetrepo
