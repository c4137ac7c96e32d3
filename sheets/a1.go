package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a parsed A1 rectangle. Columns are 0-based, rows are 1-based
// sheet rows. EndRow 0 means "to the last used row".
type Range struct {
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ColumnLetter converts a 0-based column index to its A1 letters (0 -> A, 26 -> AA).
func ColumnLetter(col int) string {
	var b []byte
	for col >= 0 {
		b = append([]byte{byte('A' + col%26)}, b...)
		col = col/26 - 1
	}
	return string(b)
}

// Cell addresses one cell, e.g. Cell(19, 5) == "T5".
func Cell(col, row int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// RowSpan addresses columns first..last of a single row, e.g. "T5:W5".
func RowSpan(first, last, row int) string {
	if first == last {
		return Cell(first, row)
	}
	return Cell(first, row) + ":" + Cell(last, row)
}

// OpenRows addresses columns first..last from row down to the last used row, e.g. "A2:Z".
func OpenRows(first, last, row int) string {
	return Cell(first, row) + ":" + ColumnLetter(last)
}

// A1 joins a sheet name and a range, quoting the sheet name when needed.
func A1(sheet, rng string) string {
	if strings.ContainsAny(sheet, " '!:") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + rng
}

// ParseRange parses "A2:Z", "T5", "T5:W5", "A:Z" and "A2:A" forms.
func ParseRange(rng string) (Range, error) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	start, end, hasEnd := strings.Cut(rng, ":")

	sc, sr, err := parseCell(start)
	if err != nil {
		return Range{}, fmt.Errorf("parse range %q: %w", rng, err)
	}
	if sr == 0 {
		sr = 1
	}
	if !hasEnd {
		return Range{StartCol: sc, StartRow: sr, EndCol: sc, EndRow: sr}, nil
	}

	ec, er, err := parseCell(end)
	if err != nil {
		return Range{}, fmt.Errorf("parse range %q: %w", rng, err)
	}
	if ec < sc || (er != 0 && er < sr) {
		return Range{}, fmt.Errorf("parse range %q: inverted", rng)
	}
	return Range{StartCol: sc, StartRow: sr, EndCol: ec, EndRow: er}, nil
}

func parseCell(s string) (col, row int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := 0
	col = 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("missing column in %q", s)
	}
	col--
	if i == len(s) {
		return col, 0, nil
	}
	row, err = strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("bad row in %q", s)
	}
	return col, row, nil
}
