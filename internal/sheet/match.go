package sheet

import "strings"

// FindMatch returns the first data row whose key cell equals searchKey.
// The header row is skipped. Both sides are trimmed and the stored value is
// quote-stripped; the comparison itself is exact and case-sensitive.
func FindMatch(table Table, keyColumn int, searchKey string) (Row, bool) {
	want := strings.TrimSpace(searchKey)
	for i := 1; i < len(table); i++ {
		row := table[i]
		if normalizeCell(row.Field(keyColumn)) == want {
			return row, true
		}
	}
	return nil, false
}
