package repositories

import (
	"context"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

// CatalogRepository reads raw catalog tables.
type CatalogRepository interface {
	// Base returns the required base catalog.
	Base(ctx context.Context) (*entities.Table, error)

	// Enriched returns the OSM-enriched catalog, or nil when it is absent.
	Enriched(ctx context.Context) (*entities.Table, error)

	// Details returns the simulated details table; empty when absent.
	Details(ctx context.Context) (*entities.Table, error)

	// Barrios returns the neighbourhood listing; empty when absent.
	Barrios(ctx context.Context) (*entities.Table, error)
}
