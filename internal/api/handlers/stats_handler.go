package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexmorales/GeoTolu/internal/adapters/render"
	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// StatsService computes the usage statistics.
type StatsService interface {
	Summary(ctx context.Context) (*entities.StatsSummary, error)
	Frequency(ctx context.Context, field entities.EventField, limit int) ([]entities.ValueCount, error)
}

// StatsHandler serves usage statistics over the search event log.
type StatsHandler struct {
	stats StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetSummary handles GET /api/stats
func (h *StatsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stats.Summary(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// GetFrequency handles GET /api/stats/frequency/{field}
func (h *StatsHandler) GetFrequency(w http.ResponseWriter, r *http.Request) {
	field, err := entities.ParseEventField(r.PathValue("field"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	counts, err := h.stats.Frequency(r.Context(), field, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"field":  field,
		"values": counts,
	})
}

// GetChart handles GET /api/stats/charts/{chart}
func (h *StatsHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	chart := strings.TrimSuffix(r.PathValue("chart"), ".png")

	summary, err := h.stats.Summary(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render.StatsChart(&buf, chart, summary); err != nil {
		if errors.Is(err, render.ErrUnknownChart) {
			respondWithError(w, http.StatusNotFound, "unknown chart "+chart)
			return
		}
		respondWithAppError(w, r, apperrors.NewInternalError("failed to render chart", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
