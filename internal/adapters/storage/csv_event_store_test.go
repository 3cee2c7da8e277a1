package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

func newEvent(kind entities.ActionKind, zone, category, facilityType, text string, count int) *entities.SearchEvent {
	now := time.Date(2025, 5, 10, 8, 30, 0, 0, time.Local)
	return entities.NewSearchEvent(now, kind, entities.NewFilterCriteria(zone, category, facilityType, text), count)
}

func TestCSVEventStore_MissingFileIsEmpty(t *testing.T) {
	store := NewCSVEventStore(filepath.Join(t.TempDir(), "data", "estadisticas_busquedas.csv"))

	events, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCSVEventStore_AppendCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "estadisticas_busquedas.csv")
	store := NewCSVEventStore(path)

	err := store.Append(context.Background(), newEvent(entities.ActionFilterSubmit, "Urbana", "Salud", "Hospital", "  ", 3))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"timestamp,tipo_accion,zona,categoria,infraestructura,texto_busqueda,resultados\n"+
			"2025-05-10T08:30:00,boton_filtro,Urbana,Salud,Hospital,,3\n",
		string(raw))
}

func TestCSVEventStore_AppendIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewCSVEventStore(filepath.Join(t.TempDir(), "log.csv"))

	event := newEvent(entities.ActionManualLog, "Todas", "Todas", "Todas", "salud, educación", 7)
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(ctx, event))
		events, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, events, i)
	}

	events, err := store.List(ctx)
	require.NoError(t, err)
	for _, e := range events {
		assert.Equal(t, *event, *e)
	}
}

func TestCSVEventStore_AppendsToExistingFileWithoutTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	existing := "tipo_accion,timestamp,zona,categoria,infraestructura,texto_busqueda,resultados\n" +
		"enter,2024-12-01T10:00:00,Rural,Salud,Hospital,hosp,1"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	store := NewCSVEventStore(path)
	require.NoError(t, store.Append(context.Background(), newEvent(entities.ActionTextChange, "Urbana", "Todas", "Todas", "parque", 2)))

	events, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2024-12-01T10:00:00", events[0].Timestamp)
	assert.Equal(t, entities.ActionTextChange, events[0].ActionKind)
	assert.Equal(t, "parque", events[1].SearchText)
	assert.Equal(t, "2025-05-10T08:30:00", events[1].Timestamp)
}

func TestCSVEventStore_CorruptLog(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing column",
			content: "timestamp,zona\n2025-01-01T00:00:00,Urbana\n",
		},
		{
			name: "wrong field count",
			content: "timestamp,tipo_accion,zona,categoria,infraestructura,texto_busqueda,resultados\n" +
				"2025-01-01T00:00:00,boton,Urbana\n",
		},
		{
			name: "non numeric result count",
			content: "timestamp,tipo_accion,zona,categoria,infraestructura,texto_busqueda,resultados\n" +
				"2025-01-01T00:00:00,boton,Urbana,Salud,Hospital,,muchos\n",
		},
		{
			name: "unterminated quote",
			content: "timestamp,tipo_accion,zona,categoria,infraestructura,texto_busqueda,resultados\n" +
				"2025-01-01T00:00:00,boton,\"Urbana,Salud,Hospital,,1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewCSVEventStore(path).List(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCorrupt), err.Error())
		})
	}
}

func TestCSVEventStore_AppendRefusesForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	err := NewCSVEventStore(path).Append(context.Background(), newEvent(entities.ActionManualLog, "", "", "", "", 0))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCorrupt))

	raw, _ := os.ReadFile(path)
	assert.Equal(t, "a,b,c\n1,2,3\n", string(raw))
}

func TestCSVEventStore_AcceptsFloatCountsAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := "\ufefftimestamp,tipo_accion,zona,categoria,infraestructura,texto_busqueda,resultados\n" +
		"2025-01-01T00:00:00,boton,,Salud,Hospital,,4.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	events, err := NewCSVEventStore(path).List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].ResultCount)
	assert.Equal(t, "", events[0].Zone)
}

func TestCSVEventStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewCSVEventStore(filepath.Join(t.TempDir(), "log.csv"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, newEvent(entities.ActionManualLog, "Urbana", "", "", "", 1)))
		}()
	}
	wg.Wait()

	events, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 20)
}

func TestWriteEventsRoundTrip(t *testing.T) {
	events := []*entities.SearchEvent{
		newEvent(entities.ActionFilterSubmit, "Urbana", "Salud", "Hospital", "", 2),
		newEvent(entities.ActionTextChange, "Todas", "Todas", "Todas", "\"muelle\", playa", 0),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEvents(&buf, events))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(EventLogHeader, ",")+"\n"))

	parsed, err := ReadEvents(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, *events[1], *parsed[1])
}
