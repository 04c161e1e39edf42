package therapyparser

import (
	"fmt"
	"strings"
)

// HeaderRows is the number of leading rows (header and sub-header) that are never data
const HeaderRows = 2

// Field identifies a record attribute read from a fixed column
type Field int

const (
	FieldNumber Field = iota
	FieldName
	FieldShortDescription
	FieldDefinition
	FieldRationale
	FieldWhatItTreats
	FieldRecommendedAudience
	FieldContraindications
	FieldSessionDescription
	FieldComplementaryWith
	fieldCount
)

// noColumn marks a field the layout does not carry
const noColumn = -1

// OutputMode selects the JSON shape
type OutputMode string

const (
	ModeWrapped OutputMode = "wrapped" // {metadata, records}
	ModeArray   OutputMode = "array"   // bare array of records
)

// Layout is a named column mapping together with its output and short-input defaults.
// Columns are positional: header labels are never looked up.
type Layout struct {
	Name       string
	Columns    [fieldCount]int
	Mode       OutputMode
	StrictRows bool // abort when the input has no data row instead of producing fewer records
}

// DetailedLayout is the spreadsheet dictionary with a short description in column 2
// and the detailed fields from column 3 on.
var DetailedLayout = Layout{
	Name: "detailed",
	Columns: [fieldCount]int{
		FieldNumber:              0,
		FieldName:                1,
		FieldShortDescription:    2,
		FieldDefinition:          3,
		FieldRationale:           4,
		FieldWhatItTreats:        5,
		FieldRecommendedAudience: 6,
		FieldContraindications:   7,
		FieldSessionDescription:  8,
		FieldComplementaryWith:   9,
	},
	Mode:       ModeWrapped,
	StrictRows: true,
}

// GlossaryLayout is the term/definition variant: column 2 is the definition and
// every detailed field sits one column to the left of DetailedLayout.
var GlossaryLayout = Layout{
	Name: "glossary",
	Columns: [fieldCount]int{
		FieldNumber:              0,
		FieldName:                1,
		FieldShortDescription:    noColumn,
		FieldDefinition:          2,
		FieldRationale:           3,
		FieldWhatItTreats:        4,
		FieldRecommendedAudience: 5,
		FieldContraindications:   6,
		FieldSessionDescription:  7,
		FieldComplementaryWith:   8,
	},
	Mode:       ModeArray,
	StrictRows: false,
}

// LayoutByName returns a copy of the named layout
func LayoutByName(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DetailedLayout.Name:
		return DetailedLayout, nil
	case GlossaryLayout.Name:
		return GlossaryLayout, nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q", name)
}

// ParseOutputMode validates a mode string
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWrapped:
		return ModeWrapped, nil
	case ModeArray:
		return ModeArray, nil
	}
	return "", fmt.Errorf("unknown output mode %q", s)
}

// ColumnCount is the number of columns a data row is padded to
func (l Layout) ColumnCount() int {
	maxIdx := noColumn
	for _, idx := range l.Columns {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	return maxIdx + 1
}

// cell returns the raw cell for f, or "" when the layout has no column for it
func (l Layout) cell(row []string, f Field) string {
	idx := l.Columns[f]
	if idx == noColumn || idx >= len(row) {
		return ""
	}
	return row[idx]
}
