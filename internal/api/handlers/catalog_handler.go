package handlers

import (
	"context"
	"net/http"

	"github.com/alexmorales/GeoTolu/internal/application/services"
	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

// CatalogService is the catalog access used by the HTTP handlers.
type CatalogService interface {
	Load(ctx context.Context, source entities.DataSource) (*services.CatalogView, error)
	Sources(ctx context.Context) ([]services.SourceInfo, error)
	Barrios(ctx context.Context) (*entities.Table, error)
}

// CatalogHandler serves the facility directory.
type CatalogHandler struct {
	catalogs CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogs CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs}
}

// ListSources handles GET /api/catalog/sources
func (h *CatalogHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.catalogs.Sources(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sources": sources,
	})
}

// GetOptions handles GET /api/catalog/options
func (h *CatalogHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	view, ok := h.load(w, r)
	if !ok {
		return
	}
	catalog := view.Catalog

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"source":     view.Source,
		"notice":     view.Notice,
		"zones":      catalog.Options(entities.ColumnZone),
		"categories": catalog.Options(entities.ColumnCategory),
		"types":      catalog.Options(entities.ColumnFacilityType),
		"columns":    catalog.DisplayColumns(),
	})
}

// ListFacilities handles GET /api/facilities
func (h *CatalogHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	view, ok := h.load(w, r)
	if !ok {
		return
	}

	facilities, count := services.Filter(view.Catalog, criteriaFromQuery(r))
	columns := view.Catalog.DisplayColumns()
	rows := make([]map[string]string, 0, len(facilities))
	for i := range facilities {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			row[col] = facilities[i].Value(col)
		}
		rows = append(rows, row)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"source":  view.Source,
		"notice":  view.Notice,
		"columns": columns,
		"rows":    rows,
		"count":   count,
	})
}

// GetMap handles GET /api/map
func (h *CatalogHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	view, ok := h.load(w, r)
	if !ok {
		return
	}

	facilities, count := services.Filter(view.Catalog, criteriaFromQuery(r))
	mapView, err := services.BuildMapView(view.Catalog, facilities)
	if err != nil {
		respondWithAppError(w, r, apperrors.NewInternalError("failed to render map", err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"source":  view.Source,
		"center":  mapView.Center,
		"zoom":    mapView.Zoom,
		"markers": mapView.Markers,
		"count":   count,
	})
}

// ListBarrios handles GET /api/barrios
func (h *CatalogHandler) ListBarrios(w http.ResponseWriter, r *http.Request) {
	table, err := h.catalogs.Barrios(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	columns := table.Columns
	if columns == nil {
		columns = []string{}
	}
	rows := table.Rows
	if rows == nil {
		rows = []map[string]string{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"columns": columns,
		"rows":    rows,
		"count":   len(rows),
	})
}

func (h *CatalogHandler) load(w http.ResponseWriter, r *http.Request) (*services.CatalogView, bool) {
	source, err := entities.ParseDataSource(r.URL.Query().Get("source"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	view, err := h.catalogs.Load(r.Context(), source)
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	return view, true
}

func criteriaFromQuery(r *http.Request) entities.FilterCriteria {
	q := r.URL.Query()
	return entities.NewFilterCriteria(q.Get("zone"), q.Get("category"), q.Get("type"), q.Get("q"))
}
