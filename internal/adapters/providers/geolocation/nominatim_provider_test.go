package geolocation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexmorales/GeoTolu/internal/adapters/cache"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "9.52", r.URL.Query().Get("lat"))
		assert.Equal(t, "-75.58", r.URL.Query().Get("lon"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, "tolu-conecta/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"display_name": "Centro, Santiago de Tolú, Sucre, Colombia",
			"lat": "9.5201",
			"lon": "-75.5801",
			"address": {"neighbourhood": "Centro", "town": "Santiago de Tolú", "state": "Sucre", "country": "Colombia"}
		}`))
	}))
	defer server.Close()

	provider := NewNominatimProviderWithOptions(server.URL, "", cache.NewMemoryCache(), time.Hour, server.Client())

	addr, err := provider.ReverseGeocode(context.Background(), 9.52, -75.58)
	require.NoError(t, err)
	assert.Equal(t, "Centro", addr.Neighborhood)
	assert.Equal(t, "Santiago de Tolú", addr.Municipality)
	assert.Equal(t, "Sucre", addr.Department)
	assert.Equal(t, "Colombia", addr.Country)
	assert.InDelta(t, 9.5201, addr.Coordinates.Latitude, 1e-9)

	again, err := provider.ReverseGeocode(context.Background(), 9.520001, -75.580001)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNominatimProvider_PrefersSuburbAndCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address": {"suburb": "Pueblo Nuevo", "neighbourhood": "Centro", "city": "Sincelejo", "state": "Sucre"}}`))
	}))
	defer server.Close()

	provider := NewNominatimProviderWithOptions(server.URL, "test/1.0", nil, 0, server.Client())

	addr, err := provider.ReverseGeocode(context.Background(), 9.3, -75.4)
	require.NoError(t, err)
	assert.Equal(t, "Pueblo Nuevo", addr.Neighborhood)
	assert.Equal(t, "Sincelejo", addr.Municipality)
	assert.Equal(t, 9.3, addr.Coordinates.Latitude)
}

func TestNominatimProvider_NoAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer server.Close()

	provider := NewNominatimProviderWithOptions(server.URL, "", nil, 0, server.Client())

	addr, err := provider.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, addr.Neighborhood)
	assert.Empty(t, addr.Municipality)
	assert.Empty(t, addr.Department)
}

func TestNominatimProvider_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	memory := cache.NewMemoryCache()
	provider := NewNominatimProviderWithOptions(server.URL, "", memory, time.Hour, server.Client())

	_, err := provider.ReverseGeocode(context.Background(), 9.52, -75.58)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))

	_, err = memory.Get(context.Background(), ReverseCacheKey(9.52, -75.58))
	assert.Error(t, err)
}

func TestReverseCacheKey_RoundsToFiveDecimals(t *testing.T) {
	assert.Equal(t, ReverseCacheKey(9.123451, -75.1), ReverseCacheKey(9.123449, -75.100001))
	assert.NotEqual(t, ReverseCacheKey(9.12345, -75.1), ReverseCacheKey(9.12346, -75.1))
}

func TestMockGeolocationProvider(t *testing.T) {
	addr, err := NewMockGeolocationProvider().ReverseGeocode(context.Background(), 9.5, -75.5)
	require.NoError(t, err)
	assert.Equal(t, "Sucre", addr.Department)
	assert.Equal(t, 9.5, addr.Coordinates.Latitude)
}
