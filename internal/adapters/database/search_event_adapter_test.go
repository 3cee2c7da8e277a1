package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/clients/postgres"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

func setupMockAdapter(t *testing.T) (*SearchEventAdapter, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return NewSearchEventAdapter(postgres.NewClientFromDB(mockDB)), mock
}

var eventColumns = []string{
	"id", "timestamp", "tipo_accion", "zona", "categoria",
	"infraestructura", "texto_busqueda", "resultados",
}

func TestSearchEventAdapter_Append(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	event := &entities.SearchEvent{
		Timestamp:    "2025-05-10T08:30:00",
		ActionKind:   entities.ActionFilterSubmit,
		Zone:         "Urbana",
		Category:     "Salud",
		FacilityType: "Hospital",
		SearchText:   "",
		ResultCount:  3,
	}

	mock.ExpectExec(`INSERT INTO "search_events"`).
		WithArgs("Salud", sqlmock.AnyArg(), "Hospital", 3, "", "2025-05-10T08:30:00", "boton_filtro", "Urbana").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.Append(context.Background(), event)
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEventAdapter_AppendFailure(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectExec(`INSERT INTO "search_events"`).WillReturnError(errors.New("connection reset"))

	err := adapter.Append(context.Background(), &entities.SearchEvent{ActionKind: entities.ActionManualLog})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestSearchEventAdapter_AppendDuplicateID(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectExec(`INSERT INTO "search_events"`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := adapter.Append(context.Background(), &entities.SearchEvent{
		ID:         "4b8f0c1e-1f61-4a57-9f0d-6a2d8f4f3c11",
		ActionKind: entities.ActionManualLog,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.Contains(t, err.Error(), "4b8f0c1e-1f61-4a57-9f0d-6a2d8f4f3c11")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEventAdapter_List(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	rows := sqlmock.NewRows(eventColumns).
		AddRow("a1", "2025-05-10T08:30:00", "boton_filtro", "Urbana", "Salud", "Hospital", "", 3).
		AddRow("a2", "2025-05-11T09:00:00", "enter", "Todas", "Todas", "Todas", "parque", 0)
	mock.ExpectQuery(`SELECT .* FROM "search_events" ORDER BY "seq" ASC`).WillReturnRows(rows)

	events, err := adapter.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entities.ActionFilterSubmit, events[0].ActionKind)
	assert.Equal(t, 3, events[0].ResultCount)
	assert.Equal(t, "parque", events[1].SearchText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEventAdapter_ListEmpty(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectQuery(`SELECT .* FROM "search_events"`).WillReturnRows(sqlmock.NewRows(eventColumns))

	events, err := adapter.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestSearchEventAdapter_EnsureSchema(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS search_events`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
