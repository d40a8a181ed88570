// Package sheet turns a published spreadsheet CSV export into a lookup result.
//
// The package is pure: it never touches the network or any storage. Callers
// fetch the text (see package source), hand it to [Lookup] and render the
// returned [Outcome].
//
// # Parsing rules
//
// [Parse] is not encoding/csv. Each line is parsed on its own, a double
// quote toggles "inside quotes" without being emitted, and an escaped quote
// ("") is not recognised: it closes and immediately reopens the quoted
// section. Quoted fields never span lines.
package sheet

import "strings"

// Row is one parsed line. Fields are always strings.
type Row []string

// Table is every parsed line in input order. Row 0 is the header.
type Table []Row

// Field returns the value at i, or "" when the row is too short.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Parse splits text into rows at each line feed and each row into fields.
//
// A comma outside quotes ends a field and the field is trimmed. The final
// field of a line is appended untrimmed, so a trailing carriage return stays
// in it until a reader normalises the cell. Text ending in a line feed
// produces a trailing empty row, and Parse("") returns one row holding a
// single empty field.
func Parse(text string) Table {
	lines := strings.Split(text, "\n")
	table := make(Table, 0, len(lines))
	for _, line := range lines {
		table = append(table, parseLine(line))
	}
	return table
}

func parseLine(line string) Row {
	var (
		row      Row
		field    strings.Builder
		inQuotes bool
	)

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			row = append(row, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}

	// Unterminated quotes are not an error.
	return append(row, field.String())
}

// normalizeCell strips whitespace and one wrapping double quote at each end.
func normalizeCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}
