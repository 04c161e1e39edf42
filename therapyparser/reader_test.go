package therapyparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	input := "Título,,\nNº,Terapia,Definición\n1,\"Reiki, usui\",\"Energía\nvital\"\n2,Yoga\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"1", "Reiki, usui", "Energía\nvital"}, rows[2])
	assert.Equal(t, []string{"2", "Yoga"}, rows[3], "rows keep their own width")
}

func TestReadCSVKeepsEmptyLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected [][]string
	}{
		{"trailing empty line", "h1\nh2\n\n", [][]string{{"h1"}, {"h2"}, {}}},
		{"empty lines between records", "h1\n\n\nh2\n", [][]string{{"h1"}, {}, {}, {"h2"}}},
		{"crlf empty line", "h1\r\n\r\nh2\r\n", [][]string{{"h1"}, {}, {"h2"}}},
		{"leading empty line", "\nh1\n", [][]string{{}, {"h1"}}},
		{"newline inside quotes is not a row", "1,\"a\n\nb\"\n2,c\n", [][]string{{"1", "a\n\nb"}, {"2", "c"}}},
		{"no trailing newline", "h1\nh2", [][]string{{"h1"}, {"h2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rows)
		})
	}
}

func TestReadCSVStripsBOM(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("\xEF\xBB\xBFNº,Terapia\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Nº", rows[0][0])
}

func TestReadCSVWindows1252MatchesUTF8(t *testing.T) {
	utf8Rows, err := ReadCSV(strings.NewReader("1,Reflexología,Tensión\n"))
	require.NoError(t, err)

	// í = 0xED, ó = 0xF3 in Windows-1252
	cp1252Rows, err := ReadCSV(strings.NewReader("1,Reflexolog\xeda,Tensi\xf3n\n"))
	require.NoError(t, err)

	assert.Equal(t, utf8Rows, cp1252Rows)
}

func TestReadCSVLazyQuotes(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("1,Terapia \"floral\" de Bach,x\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `Terapia "floral" de Bach`, rows[0][1])
}

func TestReadRowsUnsupportedExtension(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "therapies.ods"), "")
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "missing.csv"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeWorkbook(t *testing.T, path, sheet string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadXLSXFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Diccionario Excel.xlsx")
	writeWorkbook(t, path, "Sheet1", [][]any{
		{"DICCIONARIO DE TERAPIAS"},
		{"Nº", "Terapia", "Descripción breve"},
		{1, "Acupuntura", "Agujas finas"},
	})

	rows, err := ReadRows(path, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Acupuntura", "Agujas finas"}, rows[2])
}

func TestReadXLSXNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.xlsx")
	writeWorkbook(t, path, "Hoja1", [][]any{
		{"Título"},
		{"Nº", "Terapia"},
		{"2", "Reiki"},
	})

	rows, err := ReadXLSX(path, "Hoja1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Reiki", rows[2][1])

	_, err = ReadXLSX(path, "Missing")
	assert.Error(t, err)
}
