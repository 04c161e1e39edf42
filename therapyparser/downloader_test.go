package therapyparser

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadSource(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(converterCSV))
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "source.csv")
	n, err := DownloadSource(ts.URL+"/export?format=csv", path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(converterCSV)), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, converterCSV, string(data))
}

func TestDownloadSourceErrorKeepsPreviousFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "source.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	_, err := DownloadSource(ts.URL, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestConvertDownloadsSourceFirst(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(converterCSV))
	}))
	defer ts.Close()

	opts := testOptions(t, filepath.Join(t.TempDir(), "Diccionario Excel.xlsx - Hoja1.csv"))
	opts.InputURL = ts.URL

	result, err := Convert(opts)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)

	_, err = os.Stat(opts.InputPath)
	assert.NoError(t, err, "downloaded source is kept at the input path")
}
