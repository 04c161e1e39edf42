package therapyparser

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giygas/terapias-dictionary/logging"
)

const (
	downloadTimeout = 5 * time.Minute
	maxDownloadSize = 32 << 20
)

var downloadClient = &http.Client{
	Timeout: downloadTimeout,
}

// DownloadSource fetches the spreadsheet export at url and stores it at path.
// The previous file stays in place when the download fails.
func DownloadSource(url, path string) (int64, error) {
	response, err := downloadClient.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download %s: unexpected status %s", url, response.Status)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxDownloadSize+1))
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxDownloadSize {
		return 0, fmt.Errorf("download from %s exceeds %d bytes", url, maxDownloadSize)
	}

	if err := WriteFileAtomic(path, body, 0644); err != nil {
		return 0, err
	}

	logging.Debug("Source downloaded", "url", url, "path", path, "bytes", len(body))
	return int64(len(body)), nil
}
