package sheetrepo

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable is returned when the spreadsheet transport fails.
	// The underlying cause stays reachable through errors.Unwrap.
	ErrBackendUnavailable = errors.New("sheetrepo: backend unavailable")

	// ErrRecordNotFound is returned when a match predicate selects no row.
	ErrRecordNotFound = errors.New("sheetrepo: record not found")

	// ErrSchemaMismatch is returned when the live header row disagrees with
	// the fields a caller reads or writes.
	ErrSchemaMismatch = errors.New("sheetrepo: schema mismatch")

	// ErrInvalidRange is returned for malformed A1 references and for value
	// grids whose shape does not fit the addressed range.
	ErrInvalidRange = errors.New("sheetrepo: invalid range")
)

// SchemaError describes a header drift or an unknown field.
type SchemaError struct {
	Table   string
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema mismatch in table %q: %s", e.Table, e.Message)
	}
	return fmt.Sprintf("schema mismatch in table %q field %q: %s", e.Table, e.Field, e.Message)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// BackendError wraps a transport failure with the operation and range that
// triggered it. It matches ErrBackendUnavailable under errors.Is.
type BackendError struct {
	Op    string
	Range string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("sheetrepo: %s %s: backend unavailable: %v", e.Op, e.Range, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

func unavailable(op string, ref RangeRef, err error) error {
	return &BackendError{Op: op, Range: ref.String(), Err: err}
}
