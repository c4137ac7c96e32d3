// Package codec converts fixed-width spreadsheet rows to and from typed
// entities. It is the only package that interprets raw cells.
package codec

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// TimeLayout is the layout timestamps are written in.
const TimeLayout = "2006-01-02 15:04:05"

// JST is the zone zoneless timestamps are read and written in.
var JST = time.FixedZone("JST", 9*60*60)

var timeLayouts = []string{
	TimeLayout,
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// IsBlank reports whether every cell of row is empty.
func IsBlank(row []any) bool {
	for _, c := range row {
		if strings.TrimSpace(cellString(c)) != "" {
			return false
		}
	}
	return true
}

func cell(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

func text(row []any, i int) string {
	return cellString(cell(row, i))
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	}
	return ""
}

// number parses a numeric cell. Blank and unparsable cells are absent.
func number(v any) *float64 {
	if f, ok := v.(float64); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	s := width.Narrow.String(cellString(v))
	s = strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\t' || r == '\u00a0' || r == '\u3000' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func integer(v any) *int64 {
	f := number(v)
	if f == nil {
		return nil
	}
	r := math.Round(*f)
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
	if r < math.MinInt64 || r >= math.MaxInt64 {
		return nil
	}
	n := int64(r)
	return &n
}

func timestamp(v any) *time.Time {
	s := strings.TrimSpace(cellString(v))
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, JST); err == nil {
			return &t
		}
	}
	return nil
}

func boolean(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	switch strings.ToUpper(strings.TrimSpace(cellString(v))) {
	case "TRUE", "1":
		return true
	}
	return false
}

func formatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(JST).Format(TimeLayout)
}

func formatFloat(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

func formatInt(n *int64) any {
	if n == nil {
		return ""
	}
	return *n
}

func formatBool(b bool) any {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// merger copies a base row, padded to width, and records which columns a
// patch touched.
type merger struct {
	row     []any
	changed []int
}

func newMerger(base []any, width int) *merger {
	row := make([]any, width)
	for i := range row {
		row[i] = ""
	}
	copy(row, base)
	return &merger{row: row}
}

func (m *merger) set(col int, v any) {
	m.row[col] = v
	m.changed = append(m.changed, col)
}

// Text renders any raw cell as the string the sheet displays.
func Text(v any) string {
	return cellString(v)
}
