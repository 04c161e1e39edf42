package therapyparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/giygas/terapias-dictionary/logging"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupportedInput is returned for input files that are neither .csv nor .xlsx
var ErrUnsupportedInput = errors.New("unsupported input file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows reads every row of a .csv or .xlsx file into memory.
// sheet is only used for .xlsx, the first sheet is used when it is empty.
func ReadRows(path, sheet string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVFile(path)
	case ".xlsx":
		return ReadXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
	}
}

func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close CSV file", "path", path, "error", err)
		}
	}()

	rows, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// ReadCSV parses a comma-separated stream with quoting. Rows may have any
// number of cells. Input that is not valid UTF-8 is decoded as Windows-1252,
// which is what spreadsheet tools on Windows export by default.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		logging.Info("CSV input is not valid UTF-8, decoding as Windows-1252")
		data, err = charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode Windows-1252 input: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	var offset int64
	for {
		record, err := reader.Read()

		// encoding/csv skips empty lines, they are kept as empty rows
		for n := leadingEmptyLines(data[offset:]); n > 0; n-- {
			rows = append(rows, []string{})
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rows = append(rows, record)
		offset = reader.InputOffset()
	}
	return rows, nil
}

// leadingEmptyLines counts the empty lines at the start of b
func leadingEmptyLines(b []byte) int {
	n := 0
	for {
		switch {
		case bytes.HasPrefix(b, []byte("\n")):
			b = b[1:]
		case bytes.HasPrefix(b, []byte("\r\n")):
			b = b[2:]
		default:
			return n
		}
		n++
	}
}

// ReadXLSX reads the rows of one worksheet. Trailing empty cells are not
// returned by excelize, the extractor pads rows anyway.
func ReadXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook", "path", path, "error", err)
		}
	}()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}
	return rows, nil
}
