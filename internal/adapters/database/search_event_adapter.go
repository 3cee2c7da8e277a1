package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/clients/postgres"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

const searchEventsTable = "search_events"

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation pq.ErrorCode = "23505"

const createSearchEventsTable = `
CREATE TABLE IF NOT EXISTS search_events (
	seq             BIGSERIAL PRIMARY KEY,
	id              UUID NOT NULL UNIQUE,
	"timestamp"     TEXT NOT NULL,
	tipo_accion     TEXT NOT NULL,
	zona            TEXT NOT NULL DEFAULT '',
	categoria       TEXT NOT NULL DEFAULT '',
	infraestructura TEXT NOT NULL DEFAULT '',
	texto_busqueda  TEXT NOT NULL DEFAULT '',
	resultados      INTEGER NOT NULL CHECK (resultados >= 0),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SearchEventAdapter stores the search event log in PostgreSQL. Several
// service instances may append concurrently.
type SearchEventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSearchEventAdapter creates a new PostgreSQL event store.
func NewSearchEventAdapter(client *postgres.Client) *SearchEventAdapter {
	return &SearchEventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.SearchEventRepository = (*SearchEventAdapter)(nil)

// EnsureSchema creates the events table when it does not exist.
func (a *SearchEventAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, createSearchEventsTable); err != nil {
		return apperrors.NewInternalError("failed to create search_events table", err)
	}
	return nil
}

// Append inserts one event row.
func (a *SearchEventAdapter) Append(ctx context.Context, event *entities.SearchEvent) error {
	if event == nil {
		return apperrors.NewValidationError("search event is nil")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	record := goqu.Record{
		"id":              event.ID,
		"timestamp":       event.Timestamp,
		"tipo_accion":     string(event.ActionKind),
		"zona":            event.Zone,
		"categoria":       event.Category,
		"infraestructura": event.FacilityType,
		"texto_busqueda":  event.SearchText,
		"resultados":      event.ResultCount,
	}

	query, args, err := a.db.Insert(searchEventsTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build search event insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewConflictError(fmt.Sprintf("search event %s already logged", event.ID))
		}
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// List returns every event in insertion order.
func (a *SearchEventAdapter) List(ctx context.Context) ([]*entities.SearchEvent, error) {
	query, args, err := a.db.Select(
		"id", "timestamp", "tipo_accion", "zona", "categoria",
		"infraestructura", "texto_busqueda", "resultados",
	).From(searchEventsTable).
		Order(goqu.I("seq").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search event list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list search events", err)
	}
	defer rows.Close()

	events := []*entities.SearchEvent{}
	for rows.Next() {
		e := &entities.SearchEvent{}
		var action string
		var count sql.NullInt64
		err := rows.Scan(
			&e.ID,
			&e.Timestamp,
			&action,
			&e.Zone,
			&e.Category,
			&e.FacilityType,
			&e.SearchText,
			&count,
		)
		if err != nil {
			return nil, apperrors.NewCorruptError("failed to scan search event", err)
		}
		if count.Int64 < 0 {
			return nil, apperrors.NewCorruptError(fmt.Sprintf("search event %s has a negative result count", e.ID), nil)
		}
		e.ActionKind = entities.ActionKind(action)
		e.ResultCount = int(count.Int64)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate search events", err)
	}

	return events, nil
}
