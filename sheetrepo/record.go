package sheetrepo

import "strings"

// Record maps header names to cell values for one data row.
type Record map[string]string

// Get returns the value of field, or "" when the field is absent.
func (r Record) Get(field string) string {
	return r[field]
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is the result of reading a range: the positional header row and
// one record per data row, in sheet order.
type Table struct {
	Name    string
	Headers []string
	Records []Record
}

// MapRows treats values[0] as the header row and maps every following row
// positionally. Cells beyond a short row map to "". Blank rows are kept so
// that record indexes stay aligned with physical rows.
func MapRows(values [][]string) (headers []string, records []Record) {
	if len(values) == 0 {
		return nil, []Record{}
	}
	headers = make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = strings.TrimSpace(h)
	}

	records = make([]Record, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(Record, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return headers, records
}

// Column returns the 1-based column of field, or 0 if the header row does
// not carry it.
func (t *Table) Column(field string) int {
	for i, h := range t.Headers {
		if h != "" && h == field {
			return i + 1
		}
	}
	return 0
}

// Find returns the index of the first record accepted by match, or -1.
func (t *Table) Find(match Match) int {
	for i, rec := range t.Records {
		if match(rec) {
			return i
		}
	}
	return -1
}

// FindAll returns the indexes of every record accepted by match.
func (t *Table) FindAll(match Match) []int {
	var out []int
	for i, rec := range t.Records {
		if match(rec) {
			out = append(out, i)
		}
	}
	return out
}

// Filter returns the records accepted by match.
func (t *Table) Filter(match Match) []Record {
	out := make([]Record, 0)
	for _, rec := range t.Records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	return out
}
