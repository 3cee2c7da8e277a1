package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexmorales/GeoTolu/internal/application/services"
	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

// SearchRecorder applies the search logging policy.
type SearchRecorder interface {
	Record(ctx context.Context, catalog *entities.Catalog, kind entities.ActionKind, criteria entities.FilterCriteria, lastSeen string) (*services.RecordResult, error)
}

// SearchHandler records search actions.
type SearchHandler struct {
	catalogs CatalogService
	recorder SearchRecorder
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(catalogs CatalogService, recorder SearchRecorder) *SearchHandler {
	return &SearchHandler{catalogs: catalogs, recorder: recorder}
}

// RecordSearchRequest is the body of POST /api/searches.
type RecordSearchRequest struct {
	Source       string `json:"source"`
	Trigger      string `json:"trigger"`
	Zone         string `json:"zone"`
	Category     string `json:"category"`
	FacilityType string `json:"type"`
	Text         string `json:"text"`
	LastSeenText string `json:"last_seen_text"`
}

// RecordSearch handles POST /api/searches
func (h *SearchHandler) RecordSearch(w http.ResponseWriter, r *http.Request) {
	var req RecordSearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := entities.ParseActionKind(req.Trigger)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	source, err := entities.ParseDataSource(req.Source)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.catalogs.Load(r.Context(), source)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	criteria := entities.NewFilterCriteria(req.Zone, req.Category, req.FacilityType, req.Text)
	result, err := h.recorder.Record(r.Context(), view.Catalog, kind, criteria, req.LastSeenText)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Logged {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, result)
}
