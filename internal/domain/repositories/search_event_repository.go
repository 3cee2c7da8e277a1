package repositories

import (
	"context"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
)

// SearchEventRepository is the append-only search event log.
type SearchEventRepository interface {
	// Append durably stores one event. Identical events are stored twice.
	Append(ctx context.Context, event *entities.SearchEvent) error

	// List returns every stored event in append order. A store that does not
	// exist yet yields an empty slice; an unreadable store yields a CORRUPT error.
	List(ctx context.Context) ([]*entities.SearchEvent, error)
}
