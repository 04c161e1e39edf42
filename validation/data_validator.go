// Package validation provides search-input validation and data quality
// reporting for the therapies dictionary.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/terapias-dictionary/interfaces"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
)

var (
	// Letters in any script (Spanish accents, ñ, ü), digits, spaces and safe punctuation
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.'+]+$`)

	idRegex = regexp.MustCompile(`^[0-9]{1,9}$`)

	// strings.Contains is cheaper than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "$(", "${", "../", "..\\", "%2e%2e",
	}
)

const (
	minInputRunes = 2
	maxInputRunes = 50
	maxInputWords = 6
	maxRepetition = 5
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput checks a free-text search term
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	runes := utf8.RuneCountInString(input)
	if runes < minInputRunes {
		return fmt.Errorf("input too short: minimum %d characters", minInputRunes)
	}
	if runes > maxInputRunes {
		return fmt.Errorf("input too long: maximum %d characters", maxInputRunes)
	}

	if len(strings.Fields(input)) > maxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods and plus sign are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateID parses a therapy id from a URL parameter
func (v *DataValidatorImpl) ValidateID(input string) (int, error) {
	if !idRegex.MatchString(input) {
		return 0, fmt.Errorf("id must be a positive number with at most 9 digits")
	}
	id, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// ReportDataQuality lists duplicated and missing ids. Ids are never required to be
// unique or contiguous, so the report is informational only.
func (v *DataValidatorImpl) ReportDataQuality(therapies []entities.Therapy) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateIDs:  []int{},
		MissingIDRows: []int{},
	}

	seen := make(map[int]int, len(therapies))
	for _, t := range therapies {
		if strings.TrimSpace(t.Definition) == "" {
			report.EmptyDefinitions++
		}

		id, ok := t.IDValue()
		if !ok {
			report.MissingIDRows = append(report.MissingIDRows, t.SourceRow)
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
		}
	}

	slices.Sort(report.DuplicateIDs)

	if len(seen) > 0 {
		ids := make([]int, 0, len(seen))
		for id := range seen {
			ids = append(ids, id)
		}
		lo, hi := slices.Min(ids), slices.Max(ids)
		report.NonContiguousIDs = hi-lo+1 != len(ids)
	}

	return report
}

// hasExcessiveRepetition reports runs of the same character longer than maxRepetition
func hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
			if run > maxRepetition {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}
