package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/giygas/terapias-dictionary/interfaces"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
	"github.com/go-chi/chi/v5"
)

// MockDataStore implements interfaces.DataStore for handler tests
type MockDataStore struct {
	therapies   []entities.Therapy
	byID        map[int]entities.Therapy
	metadata    entities.Metadata
	report      *interfaces.DataQualityReport
	lastUpdated time.Time
	updating    bool
}

func (m *MockDataStore) GetTherapies() []entities.Therapy { return m.therapies }

func (m *MockDataStore) GetTherapiesByID() map[int]entities.Therapy { return m.byID }

func (m *MockDataStore) GetMetadata() entities.Metadata { return m.metadata }

func (m *MockDataStore) GetLastUpdated() time.Time { return m.lastUpdated }

func (m *MockDataStore) GetReport() *interfaces.DataQualityReport { return m.report }

func (m *MockDataStore) IsUpdating() bool { return m.updating }

func (m *MockDataStore) BeginUpdate() bool { return true }

func (m *MockDataStore) EndUpdate() {}

func (m *MockDataStore) UpdateData(therapies []entities.Therapy, metadata entities.Metadata, report *interfaces.DataQualityReport) {
}

// MockDataStoreBuilder builds MockDataStore values fluently
type MockDataStoreBuilder struct {
	mock *MockDataStore
}

func NewMockDataStoreBuilder() *MockDataStoreBuilder {
	return &MockDataStoreBuilder{
		mock: &MockDataStore{
			therapies:   []entities.Therapy{},
			byID:        map[int]entities.Therapy{},
			report:      &interfaces.DataQualityReport{},
			lastUpdated: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
		},
	}
}

// WithTherapies sets the records and builds the id map, first record wins
func (b *MockDataStoreBuilder) WithTherapies(therapies []entities.Therapy) *MockDataStoreBuilder {
	b.mock.therapies = therapies
	b.mock.byID = make(map[int]entities.Therapy)
	for _, t := range therapies {
		if id, ok := t.IDValue(); ok {
			if _, exists := b.mock.byID[id]; !exists {
				b.mock.byID[id] = t
			}
		}
	}
	return b
}

func (b *MockDataStoreBuilder) WithMetadata(metadata entities.Metadata) *MockDataStoreBuilder {
	b.mock.metadata = metadata
	return b
}

func (b *MockDataStoreBuilder) WithLastUpdated(lastUpdated time.Time) *MockDataStoreBuilder {
	b.mock.lastUpdated = lastUpdated
	return b
}

func (b *MockDataStoreBuilder) Build() *MockDataStore {
	return b.mock
}

// MockDataValidator implements interfaces.DataValidator with switchable failures
type MockDataValidator struct {
	inputErr error
	idErr    error
	id       int
	idSet    bool
}

func (m *MockDataValidator) ValidateInput(input string) error {
	return m.inputErr
}

func (m *MockDataValidator) ValidateID(input string) (int, error) {
	if m.idErr != nil {
		return 0, m.idErr
	}
	if m.idSet {
		return m.id, nil
	}
	var id int
	for _, r := range input {
		if r < '0' || r > '9' {
			return 0, errors.New("not a number")
		}
		id = id*10 + int(r-'0')
	}
	if input == "" {
		return 0, errors.New("empty id")
	}
	return id, nil
}

func (m *MockDataValidator) ReportDataQuality(therapies []entities.Therapy) *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

type MockDataValidatorBuilder struct {
	mock *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{mock: &MockDataValidator{}}
}

func (b *MockDataValidatorBuilder) WithInputError(err error) *MockDataValidatorBuilder {
	b.mock.inputErr = err
	return b
}

func (b *MockDataValidatorBuilder) WithIDError(err error) *MockDataValidatorBuilder {
	b.mock.idErr = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.mock
}

// MockHealthChecker returns a fixed health result
type MockHealthChecker struct {
	status     string
	data       map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.data, m.httpStatus
}

func newHealthyChecker() *MockHealthChecker {
	return &MockHealthChecker{
		status:     "healthy",
		data:       map[string]any{"therapies": 3},
		httpStatus: http.StatusOK,
	}
}

func intPtr(i int) *int { return &i }

// sampleTherapies mirrors a few rows of the dictionary sheet
func sampleTherapies() []entities.Therapy {
	return []entities.Therapy{
		{
			ID:               intPtr(1),
			Name:             "Acupuntura",
			ShortDescription: "Inserción de agujas finas",
			Definition:       "Técnica de la medicina tradicional china",
			WhatItTreats:     "Dolor crónico, migrañas",
		},
		{
			ID:               intPtr(2),
			Name:             "Aromaterapia",
			ShortDescription: "Aceites esenciales",
			Rationale:        "Estimulación del sistema límbico",
			WhatItTreats:     "Estrés & ansiedad",
		},
		{
			ID:         intPtr(2),
			Name:       "Arteterapia",
			Definition: "Expresión a través del arte",
		},
		{
			Name:       "Biodanza",
			Definition: "Danza y música para la integración",
		},
	}
}

// newHandler wires a handler over the given store with permissive mocks
func newHandler(store *MockDataStore) *HTTPHandlerImpl {
	return NewHTTPHandler(store, NewMockDataValidatorBuilder().Build(), newHealthyChecker()).(*HTTPHandlerImpl)
}

// requestWithParam builds a request carrying a chi URL parameter
func requestWithParam(target, key, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
