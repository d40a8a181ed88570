package sheet

import (
	"errors"
	"strings"
)

var (
	// ErrColumnNotFound is returned when no header names the key column.
	ErrColumnNotFound = errors.New("key column not found in header row")

	// ErrEmptyInput is returned when there is no text to parse.
	ErrEmptyInput = errors.New("empty input: no data received from spreadsheet")

	// ErrEmptySearchKey is returned when the caller searches for nothing.
	ErrEmptySearchKey = errors.New("empty search key")
)

// Columns holds the resolved column offsets of a table. -1 means unresolved.
type Columns struct {
	Key    int `json:"key"`
	Remark int `json:"remark"`
	Name   int `json:"name"`
}

// HeaderMatch lists the lowercase substrings that identify each column.
type HeaderMatch struct {
	Key    []string
	Remark []string
	Name   []string
}

// DefaultHeaderMatch recognises the ITS roster export.
var DefaultHeaderMatch = HeaderMatch{
	Key:    []string{"its_id", "itsid"},
	Remark: []string{"remarks"},
	Name:   []string{"name"},
}

// ResolveColumns resolves header using DefaultHeaderMatch.
func ResolveColumns(header Row) (Columns, error) {
	return DefaultHeaderMatch.Resolve(header)
}

// Resolve scans every header cell left to right. A later matching cell
// overwrites an earlier one, so the last match wins for each column.
//
// TODO: the last-match rule came from a scan loop that never breaks; confirm
// with sheet owners whether first-match was intended before changing it.
func (m HeaderMatch) Resolve(header Row) (Columns, error) {
	cols := Columns{Key: -1, Remark: -1, Name: -1}

	for i, cell := range header {
		name := strings.ToLower(normalizeCell(cell))
		if containsAny(name, m.Key) {
			cols.Key = i
		}
		if containsAny(name, m.Remark) {
			cols.Remark = i
		}
		if containsAny(name, m.Name) {
			cols.Name = i
		}
	}

	if cols.Key == -1 {
		return cols, ErrColumnNotFound
	}
	return cols, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
