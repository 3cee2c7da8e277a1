package providers

import (
	"context"
)

// GeolocationProvider defines the reverse geocoding used by catalog enrichment
type GeolocationProvider interface {
	// ReverseGeocode converts coordinates to an address
	ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodedAddress, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodedAddress represents a reverse geocoded address. Empty fields were
// not reported by the provider.
type GeocodedAddress struct {
	DisplayName  string      `json:"display_name"`
	Neighborhood string      `json:"neighborhood"`
	Municipality string      `json:"municipality"`
	Department   string      `json:"department"`
	Country      string      `json:"country"`
	Coordinates  Coordinates `json:"coordinates"`
}
