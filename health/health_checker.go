// Package health reports whether the served therapies dictionary is usable.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/terapias-dictionary/interfaces"
)

const defaultRefreshEvery = 12 * time.Hour

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore    interfaces.DataStore
	refreshEvery time.Duration
}

// NewHealthChecker creates a health checker whose staleness thresholds are
// derived from the refresh interval
func NewHealthChecker(dataStore interfaces.DataStore, refreshEvery time.Duration) interfaces.HealthChecker {
	if refreshEvery <= 0 {
		refreshEvery = defaultRefreshEvery
	}
	return &HealthCheckerImpl{
		dataStore:    dataStore,
		refreshEvery: refreshEvery,
	}
}

// HealthCheck returns the status, the data fields for the /health body and the HTTP code.
// Data older than two refresh cycles is degraded, older than four is unhealthy.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	therapies := h.dataStore.GetTherapies()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	metadata := h.dataStore.GetMetadata()

	dataAge := time.Since(lastUpdate)

	switch {
	case len(therapies) == 0 || lastUpdate.IsZero():
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 4*h.refreshEvery:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 2*h.refreshEvery:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"therapies":   len(therapies),
		"source":      metadata.Source,
		"is_updating": isUpdating,
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
		data["next_update"] = lastUpdate.Add(h.refreshEvery).Format(time.RFC3339)
	}

	if report := h.dataStore.GetReport(); report != nil {
		data["duplicate_ids"] = len(report.DuplicateIDs)
		data["records_without_id"] = len(report.MissingIDRows)
	}

	return status, data, httpStatus
}
