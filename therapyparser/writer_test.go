package therapyparser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/terapias-dictionary/therapyparser/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestEncodeArray(t *testing.T) {
	records := []entities.Therapy{{ID: intPtr(1), Name: "Reflexología", Definition: "Presión en <pies> & manos"}}

	out, err := Encode(records, ModeArray, "ignored.csv", "ignored")
	require.NoError(t, err)

	expected := `[
  {
    "id": 1,
    "name": "Reflexología",
    "shortDescription": "",
    "definition": "Presión en <pies> & manos",
    "rationale": "",
    "whatItTreats": "",
    "recommendedAudience": "",
    "contraindications": "",
    "sessionDescription": "",
    "complementaryWith": ""
  }
]
`
	assert.Equal(t, expected, string(out))
}

func TestEncodeWrapped(t *testing.T) {
	records := []entities.Therapy{
		{ID: intPtr(1), Name: "Acupuntura"},
		{Name: "Biodanza"},
	}

	out, err := Encode(records, ModeWrapped, "Diccionario Excel.xlsx - Hoja1.csv", "JSON estructurado")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(out), `{
  "metadata": {
    "totalCount": 2,
    "source": "Diccionario Excel.xlsx - Hoja1.csv",
    "format": "JSON estructurado"
  },
  "records": [
    {
      "id": 1,`), string(out))
	assert.Contains(t, string(out), `"id": null,`)

	var doc entities.Document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, 2, doc.Metadata.TotalCount)
	require.Len(t, doc.Records, 2)
	assert.Equal(t, "Acupuntura", doc.Records[0].Name)
	assert.Nil(t, doc.Records[1].ID)
}

func TestEncodeEmpty(t *testing.T) {
	out, err := Encode(nil, ModeArray, "", "")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))

	out, err = Encode(nil, ModeWrapped, "in.csv", "JSON estructurado")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"totalCount": 0`)
	assert.Contains(t, string(out), `"records": []`)
}

func TestEncodeUnknownMode(t *testing.T) {
	_, err := Encode(nil, OutputMode("ndjson"), "", "")
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	records := []entities.Therapy{
		{ID: intPtr(4), Name: "Musicoterapia", WhatItTreats: "Estrés, ansiedad", ComplementaryWith: "Danzaterapia"},
	}

	out, err := Encode(records, ModeArray, "", "")
	require.NoError(t, err)

	var decoded []entities.Therapy
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, records, decoded)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "terapias.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteFileAtomicFailureLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "terapias.json")
	require.NoError(t, os.Mkdir(target, 0755))

	err := WriteFileAtomic(target, []byte("data"), 0644)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}
