package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
	apperrors "github.com/alexmorales/GeoTolu/pkg/errors"
)

const (
	nominatimReverseURL    = "https://nominatim.openstreetmap.org/reverse"
	defaultUserAgent       = "tolu-conecta/1.0"
	defaultReverseCacheTTL = 30 * 24 * time.Hour
	defaultHTTPTimeout     = 10 * time.Second
)

// NominatimProvider reverse geocodes coordinates with the OpenStreetMap
// Nominatim API.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   time.Duration
}

// NewNominatimProvider creates a provider against the public Nominatim endpoint.
func NewNominatimProvider(cache providers.CacheProvider) providers.GeolocationProvider {
	return NewNominatimProviderWithOptions(nominatimReverseURL, defaultUserAgent, cache, defaultReverseCacheTTL, nil)
}

// NewNominatimProviderWithOptions allows overriding the endpoint, user agent,
// cache TTL and HTTP client.
func NewNominatimProviderWithOptions(baseURL, userAgent string, cache providers.CacheProvider, cacheTTL time.Duration, httpClient *http.Client) *NominatimProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimReverseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultReverseCacheTTL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NominatimProvider{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// ReverseGeocode converts coordinates to an address. A 200 response without
// address details yields an address with empty fields.
func (n *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	ctx, span := observability.StartSpan(ctx, "NominatimProvider.ReverseGeocode")
	defer span.End()

	cacheKey := ReverseCacheKey(lat, lon)
	if n.cache != nil {
		if cached, err := n.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var address providers.GeocodedAddress
			if err := json.Unmarshal(cached, &address); err == nil {
				return &address, nil
			}
		}
	}

	payload, err := n.doReverseRequest(ctx, lat, lon)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	address := providers.GeocodedAddress{
		DisplayName:  payload.DisplayName,
		Neighborhood: firstNonEmpty(payload.Address.Suburb, payload.Address.Neighbourhood),
		Municipality: firstNonEmpty(payload.Address.Town, payload.Address.City),
		Department:   payload.Address.State,
		Country:      payload.Address.Country,
		Coordinates:  providers.Coordinates{Latitude: lat, Longitude: lon},
	}
	if v, err := strconv.ParseFloat(payload.Lat, 64); err == nil {
		address.Coordinates.Latitude = v
	}
	if v, err := strconv.ParseFloat(payload.Lon, 64); err == nil {
		address.Coordinates.Longitude = v
	}

	if n.cache != nil {
		if data, err := json.Marshal(address); err == nil {
			_ = n.cache.Set(ctx, cacheKey, data, n.cacheTTL)
		}
	}

	return &address, nil
}

func (n *NominatimProvider) doReverseRequest(ctx context.Context, lat, lon float64) (*nominatimReverseResponse, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	reqURL := fmt.Sprintf("%s?%s", n.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to build reverse geocode request", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("reverse geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalError(fmt.Sprintf("reverse geocode request returned status %d", resp.StatusCode), nil)
	}

	var payload nominatimReverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode reverse geocode response", err)
	}
	return &payload, nil
}

// ReverseCacheKey is the cache key for coordinates rounded to 5 decimals.
func ReverseCacheKey(lat, lon float64) string {
	return "geo:osm:reverse:" + hashKey(fmt.Sprintf("%.5f,%.5f", lat, lon))
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type nominatimReverseResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error,omitempty"`
}

type nominatimAddress struct {
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Town          string `json:"town"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
}
