package geolocation

import (
	"context"
	"fmt"

	"github.com/alexmorales/GeoTolu/internal/domain/providers"
)

// MockGeolocationProvider answers every lookup with a fixed address. It is
// used for enrichment dry runs.
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() providers.GeolocationProvider {
	return &MockGeolocationProvider{}
}

// ReverseGeocode converts coordinates to an address (mock implementation)
func (m *MockGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	return &providers.GeocodedAddress{
		DisplayName:  fmt.Sprintf("%.5f, %.5f", lat, lon),
		Neighborhood: "Centro",
		Municipality: "Santiago de Tolú",
		Department:   "Sucre",
		Country:      "Colombia",
		Coordinates: providers.Coordinates{
			Latitude:  lat,
			Longitude: lon,
		},
	}, nil
}
