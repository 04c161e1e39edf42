// Package handlers provides the HTTP handlers of the therapies dictionary server.
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/terapias-dictionary/interfaces"
	"github.com/giygas/terapias-dictionary/logging"
	"github.com/giygas/terapias-dictionary/therapyparser"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/unicode/norm"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// HealthResponse keeps the /health fields in a stable order
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

// RespondWithJSON writes a JSON response. Non-ASCII text and HTML characters
// are written literally, the same as in the converted file.
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if lastUpdated := h.lastUpdated(); !lastUpdated.IsZero() {
		w.Header().Set("Last-Modified", lastUpdated.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(code)
	w.Write(bytes.TrimRight(buf.Bytes(), "\n"))
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

func (h *HTTPHandlerImpl) lastUpdated() time.Time {
	if h.dataStore == nil {
		return time.Time{}
	}
	return h.dataStore.GetLastUpdated()
}

// ServeDocument returns the wrapped document, the same shape as the converted file
func (h *HTTPHandlerImpl) ServeDocument(w http.ResponseWriter, r *http.Request) {
	therapies := h.dataStore.GetTherapies()
	metadata := h.dataStore.GetMetadata()
	metadata.TotalCount = len(therapies)

	h.RespondWithJSON(w, http.StatusOK, entities.Document{
		Metadata: metadata,
		Records:  therapies,
	})
}

// ServeAllTherapies returns every record in source order
func (h *HTTPHandlerImpl) ServeAllTherapies(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.dataStore.GetTherapies())
}

// FindTherapyByID returns the first record carrying the id
func (h *HTTPHandlerImpl) FindTherapyByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := h.validator.ValidateID(idStr)
	if err != nil {
		logging.Warn("Unusual user input", "id", idStr)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid therapy id")
		return
	}

	therapy, exists := h.dataStore.GetTherapiesByID()[id]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound, "Therapy not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, therapy)
}

// SearchTherapies filters records by a case-insensitive substring over the
// name, short description, what it treats, definition and rationale
func (h *HTTPHandlerImpl) SearchTherapies(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	if term == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing search term")
		return
	}

	if err := h.validator.ValidateInput(term); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	needle := searchKey(therapyparser.NormalizeText(term))

	results := make([]entities.Therapy, 0)
	for _, t := range h.dataStore.GetTherapies() {
		if matchesSearch(t, needle) {
			results = append(results, t)
		}
	}

	// Always 200, empty array when nothing matches
	h.RespondWithJSON(w, http.StatusOK, results)
}

// searchKey lowercases s in NFC so composed and decomposed accents compare equal
func searchKey(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

func matchesSearch(t entities.Therapy, needle string) bool {
	for _, field := range []string{t.Name, t.ShortDescription, t.WhatItTreats, t.Definition, t.Rationale} {
		if strings.Contains(searchKey(field), needle) {
			return true
		}
	}
	return false
}

// HealthCheck reports the state of the served data
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()
	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status: status,
		Data:   data,
	})
}
