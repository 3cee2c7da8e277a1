package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
)

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) Append(ctx context.Context, event *entities.SearchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventRepository) List(ctx context.Context) ([]*entities.SearchEvent, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]*entities.SearchEvent)
	return events, args.Error(1)
}

type mockCatalogRepository struct {
	mock.Mock
}

func (m *mockCatalogRepository) table(args mock.Arguments) (*entities.Table, error) {
	table, _ := args.Get(0).(*entities.Table)
	return table, args.Error(1)
}

func (m *mockCatalogRepository) Base(ctx context.Context) (*entities.Table, error) {
	return m.table(m.Called(ctx))
}

func (m *mockCatalogRepository) Enriched(ctx context.Context) (*entities.Table, error) {
	return m.table(m.Called(ctx))
}

func (m *mockCatalogRepository) Details(ctx context.Context) (*entities.Table, error) {
	return m.table(m.Called(ctx))
}

func (m *mockCatalogRepository) Barrios(ctx context.Context) (*entities.Table, error) {
	return m.table(m.Called(ctx))
}

type mockGeolocationProvider struct {
	mock.Mock
}

func (m *mockGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	args := m.Called(ctx, lat, lon)
	addr, _ := args.Get(0).(*providers.GeocodedAddress)
	return addr, args.Error(1)
}
