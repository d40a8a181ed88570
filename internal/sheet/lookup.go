package sheet

import (
	"errors"
	"strings"
)

// OutcomeType selects one of the three display modes.
type OutcomeType string

const (
	OutcomeFound    OutcomeType = "found"
	OutcomeNotFound OutcomeType = "not_found"
	OutcomeError    OutcomeType = "error"
)

// Placeholders shown when a matched row has no usable cell.
const (
	NameUnavailable   = "Name not available"
	StatusUnavailable = "No status available"
)

// fallbackNameColumn is where the roster export keeps the full name when no
// header says "name".
const fallbackNameColumn = 1

// Outcome is the result of a single lookup.
type Outcome struct {
	Type         OutcomeType `json:"type"`
	DisplayName  string      `json:"displayName,omitempty"`
	DisplayValue string      `json:"displayValue,omitempty"`
	Reason       string      `json:"reason,omitempty"`

	err error
}

// Found reports whether the lookup matched a row.
func (o Outcome) Found() bool { return o.Type == OutcomeFound }

// Err returns the error behind an error outcome, nil otherwise.
func (o Outcome) Err() error { return o.err }

// ErrorOutcome wraps err as an error outcome.
func ErrorOutcome(err error) Outcome {
	return Outcome{Type: OutcomeError, Reason: err.Error(), err: err}
}

// Lookup parses text, resolves its header with match and searches for
// searchKey. Every failure is returned as an error outcome, never a panic.
func Lookup(text, searchKey string, match HeaderMatch) Outcome {
	if strings.TrimSpace(searchKey) == "" {
		return ErrorOutcome(ErrEmptySearchKey)
	}
	if text == "" {
		return ErrorOutcome(ErrEmptyInput)
	}

	table := Parse(text)
	cols, err := match.Resolve(table[0])
	if err != nil {
		return ErrorOutcome(err)
	}

	row, ok := FindMatch(table, cols.Key, searchKey)
	if !ok {
		return Outcome{Type: OutcomeNotFound}
	}

	return Outcome{
		Type:         OutcomeFound,
		DisplayName:  displayName(row, cols),
		DisplayValue: displayValue(row, cols),
	}
}

func displayName(row Row, cols Columns) string {
	idx := cols.Name
	if idx == -1 || idx == cols.Key {
		idx = fallbackNameColumn
	}
	if v := normalizeCell(row.Field(idx)); v != "" {
		return v
	}
	return NameUnavailable
}

func displayValue(row Row, cols Columns) string {
	if v := normalizeCell(row.Field(cols.Remark)); v != "" {
		return v
	}
	return StatusUnavailable
}

// IsInputError reports whether err came from the sheet contents or the
// search key rather than from the caller's environment.
func IsInputError(err error) bool {
	return errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrEmptySearchKey)
}
