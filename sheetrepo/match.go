package sheetrepo

import "strings"

// Match selects records during a scan.
type Match func(Record) bool

// FieldEquals matches records whose field equals value exactly.
func FieldEquals(field, value string) Match {
	return func(r Record) bool {
		return r[field] == value
	}
}

// FieldEqualsFold compares trimmed values case-insensitively. Usernames are
// matched this way.
func FieldEqualsFold(field, value string) Match {
	value = strings.TrimSpace(value)
	return func(r Record) bool {
		return strings.EqualFold(strings.TrimSpace(r[field]), value)
	}
}

// FieldsEqual matches records where every given field equals its value.
func FieldsEqual(values map[string]string) Match {
	return func(r Record) bool {
		for k, v := range values {
			if r[k] != v {
				return false
			}
		}
		return true
	}
}

// All matches records accepted by every predicate.
func All(matches ...Match) Match {
	return func(r Record) bool {
		for _, m := range matches {
			if !m(r) {
				return false
			}
		}
		return true
	}
}

// Not inverts a predicate.
func Not(m Match) Match {
	return func(r Record) bool {
		return !m(r)
	}
}
