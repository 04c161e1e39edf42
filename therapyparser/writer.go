package therapyparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giygas/terapias-dictionary/logging"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
)

// NewDocument wraps records with their metadata block
func NewDocument(records []entities.Therapy, source, format string) entities.Document {
	if records == nil {
		records = []entities.Therapy{}
	}
	return entities.Document{
		Metadata: entities.Metadata{
			TotalCount: len(records),
			Source:     source,
			Format:     format,
		},
		Records: records,
	}
}

// Encode renders the records in the requested mode with 2-space indentation.
// Non-ASCII text and characters like < > & are written literally.
func Encode(records []entities.Therapy, mode OutputMode, source, format string) ([]byte, error) {
	var payload any
	switch mode {
	case ModeWrapped:
		payload = NewDocument(records, source, format)
	case ModeArray:
		if records == nil {
			records = []entities.Therapy{}
		}
		payload = records
	default:
		return nil, fmt.Errorf("unknown output mode %q", mode)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode therapies: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the previous file or the complete new one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			if removeErr := os.Remove(tmpName); removeErr != nil && !os.IsNotExist(removeErr) {
				logging.Warn("Failed to remove temporary output", "path", tmpName, "error", removeErr)
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
