package identity

import (
	"strconv"
	"strings"
)

// NextID returns max(numeric ids)+1 as a decimal string. Non-numeric ids are
// ignored, so a sheet with no numeric ids starts at "1".
func NextID(ids []string) string {
	var max int64
	for _, id := range ids {
		if n, ok := parseID(id); ok && n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// Compare orders identifiers numerically when both parse as integers and
// lexically otherwise. A numeric id sorts before a non-numeric one.
func Compare(a, b string) int {
	na, okA := parseID(a)
	nb, okB := parseID(b)
	switch {
	case okA && okB:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

// Normalize trims the surrounding whitespace a hand-edited id cell may carry.
// Sheets also renders integral numbers as "12.0" under some locales.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasSuffix(id, ".0") {
		if _, err := strconv.ParseInt(id[:len(id)-2], 10, 64); err == nil {
			return id[:len(id)-2]
		}
	}
	return id
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
