package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alexmorales/GeoTolu/internal/adapters/events"
	"github.com/alexmorales/GeoTolu/internal/adapters/storage"
	"github.com/alexmorales/GeoTolu/internal/application/services"
	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

var fixedNow = time.Date(2025, 5, 10, 8, 30, 0, 0, time.Local)

func newAnalytics(store *storage.MemoryEventStore) *services.SearchAnalyticsService {
	return services.NewSearchAnalyticsService(store, nil).WithClock(func() time.Time { return fixedNow })
}

func testCatalog() *entities.Catalog {
	return entities.NewCatalog(&entities.Table{
		Columns: []string{"CATEGORIA", "INFRAESTRUCTURA", "ZONA", "LATITUD", "LONGITUD"},
		Rows: []map[string]string{
			{"CATEGORIA": "Salud", "INFRAESTRUCTURA": "Hospital", "ZONA": "Urbana", "LATITUD": "9.52", "LONGITUD": "-75.58"},
			{"CATEGORIA": "Recreación", "INFRAESTRUCTURA": "Parque", "ZONA": "Urbana", "LATITUD": "9.53", "LONGITUD": "-75.57"},
			{"CATEGORIA": "Salud", "INFRAESTRUCTURA": "Puesto de salud", "ZONA": "Rural", "LATITUD": "9.40", "LONGITUD": "-75.60"},
		},
	})
}

func TestShouldLogTextChange(t *testing.T) {
	tests := []struct {
		text, lastSeen string
		want           bool
	}{
		{"hospital", "", true},
		{"hospital", "hospital", false},
		{"  hospital ", "hospital", false},
		{"parque", "hospital", true},
		{"", "hospital", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, services.ShouldLogTextChange(tt.text, tt.lastSeen), "%q after %q", tt.text, tt.lastSeen)
	}
}

func TestAppendEvent_MonotonicGrowth(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()
	svc := newAnalytics(store)
	criteria := entities.NewFilterCriteria("Urbana", "", "", "")

	for i := 1; i <= 3; i++ {
		_, err := svc.AppendEvent(ctx, entities.ActionFilterSubmit, criteria, 2)
		require.NoError(t, err)

		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, summary.TotalEvents)
	}

	events, err := svc.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, events[0], events[1], "identical calls store identical events")
}

func TestAppendEvent_WhitespaceTextStoredEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()

	event, err := newAnalytics(store).AppendEvent(ctx, entities.ActionManualLog, entities.NewFilterCriteria("", "", "", "  "), 5)
	require.NoError(t, err)
	assert.Equal(t, "", event.SearchText)
	assert.Equal(t, "2025-05-10T08:30:00", event.Timestamp)

	events, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].SearchText)
	assert.Equal(t, entities.AllValues, events[0].Zone)
}

func TestRecord_TextChangePolicy(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()
	svc := newAnalytics(store)
	catalog := testCatalog()

	res, err := svc.Record(ctx, catalog, entities.ActionTextChange, entities.NewFilterCriteria("", "", "", " salud "), "")
	require.NoError(t, err)
	assert.True(t, res.Logged)
	assert.Equal(t, 2, res.ResultCount)
	assert.Equal(t, "salud", res.LastSeenText)
	assert.Equal(t, entities.ActionTextChange, res.Event.ActionKind)

	res, err = svc.Record(ctx, catalog, entities.ActionTextChange, entities.NewFilterCriteria("", "", "", "salud"), res.LastSeenText)
	require.NoError(t, err)
	assert.False(t, res.Logged)
	assert.Nil(t, res.Event)
	assert.Equal(t, "salud", res.LastSeenText)

	res, err = svc.Record(ctx, catalog, entities.ActionTextChange, entities.NewFilterCriteria("", "", "", ""), "salud")
	require.NoError(t, err)
	assert.False(t, res.Logged)
	assert.Equal(t, "salud", res.LastSeenText)

	events, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecord_ExplicitActionsAlwaysLog(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore()
	svc := newAnalytics(store)
	criteria := entities.NewFilterCriteria("Urbana", "", "", "hospital")

	for _, kind := range []entities.ActionKind{entities.ActionFilterSubmit, entities.ActionFilterSubmit, entities.ActionManualLog} {
		res, err := svc.Record(ctx, testCatalog(), kind, criteria, "hospital")
		require.NoError(t, err)
		assert.True(t, res.Logged)
		assert.Equal(t, 1, res.ResultCount)
		assert.Equal(t, "hospital", res.LastSeenText)
	}

	events, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, entities.ActionManualLog, events[2].ActionKind)
	assert.Equal(t, 1, events[2].ResultCount)
}

func TestRecord_UnknownKind(t *testing.T) {
	svc := newAnalytics(storage.NewMemoryEventStore())

	_, err := svc.Record(context.Background(), testCatalog(), entities.ActionKind("click"), entities.NewFilterCriteria("", "", "", ""), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestRecord_StoreFailure(t *testing.T) {
	repo := new(mockEventRepository)
	repo.On("Append", mock.Anything, mock.AnythingOfType("*entities.SearchEvent")).
		Return(apperrors.NewInternalError("disk full", errors.New("ENOSPC")))
	svc := services.NewSearchAnalyticsService(repo, nil)

	_, err := svc.Record(context.Background(), testCatalog(), entities.ActionManualLog, entities.NewFilterCriteria("", "", "", ""), "")
	require.Error(t, err)
	repo.AssertExpectations(t)
}

func TestSummary_CorruptStoreSurfaces(t *testing.T) {
	repo := new(mockEventRepository)
	repo.On("List", mock.Anything).Return(nil, apperrors.NewCorruptError("bad line", nil))
	svc := services.NewSearchAnalyticsService(repo, nil)

	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCorrupt))

	_, err = svc.Frequency(context.Background(), entities.FieldZone, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCorrupt))
}

func TestSummary_EmptyStore(t *testing.T) {
	summary, err := newAnalytics(storage.NewMemoryEventStore()).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalEvents)
	assert.Empty(t, summary.Zones)
}

func TestFrequency_Limit(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryEventStore(
		&entities.SearchEvent{FacilityType: "Hospital"},
		&entities.SearchEvent{FacilityType: "Hospital"},
		&entities.SearchEvent{FacilityType: "Parque"},
	)
	svc := newAnalytics(store)

	all, err := svc.Frequency(ctx, entities.FieldFacilityType, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	top, err := svc.Frequency(ctx, entities.FieldFacilityType, 1)
	require.NoError(t, err)
	assert.Equal(t, []entities.ValueCount{{Value: "Hospital", Count: 2}}, top)
}

func TestAppendEvent_PublishesToEventBus(t *testing.T) {
	ctx := context.Background()
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	live, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	svc := newAnalytics(storage.NewMemoryEventStore()).WithEventBus(bus)
	event, err := svc.AppendEvent(ctx, entities.ActionManualLog, entities.NewFilterCriteria("Rural", "", "", ""), 1)
	require.NoError(t, err)

	select {
	case got := <-live:
		assert.Equal(t, event, got)
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
}
