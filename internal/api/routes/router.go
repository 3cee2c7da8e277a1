package routes

import (
	"net/http"

	"github.com/alexmorales/GeoTolu/internal/api/handlers"
	"github.com/alexmorales/GeoTolu/internal/api/middleware"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	catalogHandler *handlers.CatalogHandler
	searchHandler  *handlers.SearchHandler
	statsHandler   *handlers.StatsHandler
	streamHandler  *handlers.StreamHandler

	metrics        *observability.Metrics
	allowedOrigins []string
}

// NewRouter creates a new router
func NewRouter(
	catalogHandler *handlers.CatalogHandler,
	searchHandler *handlers.SearchHandler,
	statsHandler *handlers.StatsHandler,
	streamHandler *handlers.StreamHandler,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		catalogHandler: catalogHandler,
		searchHandler:  searchHandler,
		statsHandler:   statsHandler,
		streamHandler:  streamHandler,
		metrics:        metrics,
		allowedOrigins: allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Catalog
	r.mux.HandleFunc("GET /api/catalog/sources", r.catalogHandler.ListSources)
	r.mux.HandleFunc("GET /api/catalog/options", r.catalogHandler.GetOptions)
	r.mux.HandleFunc("GET /api/facilities", r.catalogHandler.ListFacilities)
	r.mux.HandleFunc("GET /api/map", r.catalogHandler.GetMap)
	r.mux.HandleFunc("GET /api/barrios", r.catalogHandler.ListBarrios)

	// Search logging
	r.mux.HandleFunc("POST /api/searches", r.searchHandler.RecordSearch)

	// Statistics
	r.mux.HandleFunc("GET /api/stats", r.statsHandler.GetSummary)
	r.mux.HandleFunc("GET /api/stats/frequency/{field}", r.statsHandler.GetFrequency)
	r.mux.HandleFunc("GET /api/stats/charts/{chart}", r.statsHandler.GetChart)

	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /api/stats/stream", r.streamHandler.StreamSearchEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.Compression(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflight requests never reach the mux
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
