// Package data provides thread-safe storage of the served therapies dictionary.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/terapias-dictionary/interfaces"
	"github.com/giygas/terapias-dictionary/logging"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// snapshot is swapped as a whole so readers never see records from one
// conversion with the metadata of another
type snapshot struct {
	therapies   []entities.Therapy
	byID        map[int]entities.Therapy
	metadata    entities.Metadata
	report      *interfaces.DataQualityReport
	lastUpdated time.Time
}

// DataContainer holds the current snapshot behind an atomic pointer
type DataContainer struct {
	current  atomic.Pointer[snapshot]
	updating atomic.Bool
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{
		therapies: make([]entities.Therapy, 0),
		byID:      make(map[int]entities.Therapy),
		report:    &interfaces.DataQualityReport{},
	})
	return dc
}

func (dc *DataContainer) load() *snapshot {
	if s := dc.current.Load(); s != nil {
		return s
	}
	logging.Warn("Data container used before initialization")
	return &snapshot{byID: map[int]entities.Therapy{}, report: &interfaces.DataQualityReport{}}
}

// GetTherapies returns the records in source order
func (dc *DataContainer) GetTherapies() []entities.Therapy {
	return dc.load().therapies
}

// GetTherapiesByID returns the id lookup map
func (dc *DataContainer) GetTherapiesByID() map[int]entities.Therapy {
	return dc.load().byID
}

// GetMetadata returns the metadata block of the current records
func (dc *DataContainer) GetMetadata() entities.Metadata {
	return dc.load().metadata
}

// GetReport returns the data quality report of the current records
func (dc *DataContainer) GetReport() *interfaces.DataQualityReport {
	return dc.load().report
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.load().lastUpdated
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// UpdateData atomically replaces all data in the container
func (dc *DataContainer) UpdateData(therapies []entities.Therapy, metadata entities.Metadata, report *interfaces.DataQualityReport) {
	if therapies == nil {
		therapies = make([]entities.Therapy, 0)
	}
	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	byID := make(map[int]entities.Therapy, len(therapies))
	for _, t := range therapies {
		if id, ok := t.IDValue(); ok {
			if _, exists := byID[id]; !exists {
				byID[id] = t
			}
		}
	}

	dc.current.Store(&snapshot{
		therapies:   therapies,
		byID:        byID,
		metadata:    metadata,
		report:      report,
		lastUpdated: time.Now(),
	})
}

// BeginUpdate marks the start of a data update operation.
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
