package therapyparser

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingDigits = regexp.MustCompile(`^[0-9]+`)

// NormalizeText trims s and collapses every internal whitespace run
// (spaces, tabs, newlines, no-break spaces) into a single space.
// Every other character is kept as is.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// ParseLeadingInt reads the run of decimal digits at the start of the trimmed
// value: "3." -> 3, "12 terapias" -> 12. ok is false when there is none.
func ParseLeadingInt(s string) (n int, ok bool) {
	digits := leadingDigits.FindString(strings.TrimSpace(s))
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Out of int range
		return 0, false
	}
	return n, true
}

func parseID(s string) *int {
	n, ok := ParseLeadingInt(s)
	if !ok {
		return nil
	}
	return &n
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
