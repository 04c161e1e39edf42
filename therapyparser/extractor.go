// Package therapyparser turns the spreadsheet export of the therapies dictionary
// into ordered therapy records and writes them as JSON.
package therapyparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/terapias-dictionary/logging"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
)

// ErrInsufficientRows is returned by strict layouts when the input has no data row
// after the header rows. Nothing must be written in that case.
var ErrInsufficientRows = errors.New("input does not have enough rows")

// Stats counts what happened to every input row
type Stats struct {
	TotalRows   int `json:"totalRows"`
	HeaderRows  int `json:"headerRows"`
	BlankRows   int `json:"blankRows"`
	MissingName int `json:"missingName"`
	Parsed      int `json:"parsed"`
	MissingID   int `json:"missingId"`
}

// Skipped is the number of data rows that produced no record
func (s Stats) Skipped() int {
	return s.BlankRows + s.MissingName
}

// Extract maps every data row to a record using the layout's fixed columns.
// Blank rows and rows without a name are dropped, everything else is kept in
// source order. onRecord, when not nil, is called after each record is built.
func Extract(rows [][]string, layout Layout, onRecord func(entities.Therapy)) ([]entities.Therapy, Stats, error) {
	stats := Stats{TotalRows: len(rows)}

	if len(rows) < HeaderRows+1 {
		if layout.StrictRows {
			return nil, stats, fmt.Errorf("%w: got %d, need at least %d (%d header rows and one data row)",
				ErrInsufficientRows, len(rows), HeaderRows+1, HeaderRows)
		}
		logging.Warn("Input has no data rows", "rows", len(rows), "layout", layout.Name)
	}

	if len(rows) >= HeaderRows {
		subHeader := rows[HeaderRows-1]
		logging.Debug("Detected columns", "count", len(subHeader), "headers", subHeader)
	}

	stats.HeaderRows = min(len(rows), HeaderRows)
	columns := layout.ColumnCount()
	records := make([]entities.Therapy, 0, max(len(rows)-HeaderRows, 0))

	for i := HeaderRows; i < len(rows); i++ {
		row := padRow(rows[i], columns)

		if rowIsBlank(row) {
			stats.BlankRows++
			continue
		}

		if strings.TrimSpace(layout.cell(row, FieldName)) == "" {
			stats.MissingName++
			continue
		}

		record := entities.Therapy{
			ID:                  parseID(layout.cell(row, FieldNumber)),
			Name:                NormalizeText(layout.cell(row, FieldName)),
			ShortDescription:    NormalizeText(layout.cell(row, FieldShortDescription)),
			Definition:          NormalizeText(layout.cell(row, FieldDefinition)),
			Rationale:           NormalizeText(layout.cell(row, FieldRationale)),
			WhatItTreats:        NormalizeText(layout.cell(row, FieldWhatItTreats)),
			RecommendedAudience: NormalizeText(layout.cell(row, FieldRecommendedAudience)),
			Contraindications:   NormalizeText(layout.cell(row, FieldContraindications)),
			SessionDescription:  NormalizeText(layout.cell(row, FieldSessionDescription)),
			ComplementaryWith:   NormalizeText(layout.cell(row, FieldComplementaryWith)),
			SourceRow:           i + 1,
		}

		if record.ID == nil {
			stats.MissingID++
		}

		records = append(records, record)
		if onRecord != nil {
			onRecord(record)
		}
	}

	stats.Parsed = len(records)

	if stats.Skipped() > 0 {
		logging.Info("Therapy rows skip statistics",
			"blank_rows", stats.BlankRows,
			"missing_name", stats.MissingName,
			"total_rows", stats.TotalRows,
			"records_parsed", stats.Parsed)
	}

	return records, stats, nil
}

// padRow returns row extended with empty cells up to n, the input is not modified
func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	padded := make([]string, n)
	copy(padded, row)
	return padded
}
