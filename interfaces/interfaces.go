// Package interfaces defines core abstractions for the therapies dictionary
// so the server, scheduler and handlers can be tested with mocks.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/terapias-dictionary/therapyparser/entities"
)

// DataQualityReport summarizes issues found in a converted dictionary.
// None of them blocks publication, they are only logged.
type DataQualityReport struct {
	DuplicateIDs     []int
	MissingIDRows    []int // Source rows of records without an id
	EmptyDefinitions int
	NonContiguousIDs bool
}

// DataStore provides thread-safe access to the served records with
// atomic swaps for zero-downtime refreshes.
type DataStore interface {
	GetTherapies() []entities.Therapy
	GetTherapiesByID() map[int]entities.Therapy // First record wins when ids repeat
	GetMetadata() entities.Metadata
	GetLastUpdated() time.Time
	GetReport() *DataQualityReport
	IsUpdating() bool

	UpdateData(therapies []entities.Therapy, metadata entities.Metadata, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Converter produces the records from the configured source and writes the output file
type Converter interface {
	Convert() ([]entities.Therapy, entities.Metadata, error)
}

// Scheduler manages the periodic refresh of the served dictionary
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the endpoints of the serve mode
type HTTPHandler interface {
	ServeDocument(w http.ResponseWriter, r *http.Request)
	ServeAllTherapies(w http.ResponseWriter, r *http.Request)
	FindTherapyByID(w http.ResponseWriter, r *http.Request)
	SearchTherapies(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports the health of the served data
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// DataValidator validates user input and reports data quality
type DataValidator interface {
	ValidateInput(input string) error
	ValidateID(input string) (int, error)
	ReportDataQuality(therapies []entities.Therapy) *DataQualityReport
}
