package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const (
	googleGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultGeocodeCacheTTL = 30 * 24 * time.Hour
	defaultHTTPTimeout     = 8 * time.Second
)

// GoogleProvider resolves cities from the directory first and asks the Google
// Geocoding API for anything the directory does not know.
type GoogleProvider struct {
	directory  *DirectoryProvider
	apiKey     string
	region     string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   time.Duration
	baseURL    string
}

var _ providers.GeolocationProvider = (*GoogleProvider)(nil)

// GoogleOption configures a GoogleProvider
type GoogleOption func(*GoogleProvider)

// WithGeocodeCache caches resolved cities for ttl
func WithGeocodeCache(cache providers.CacheProvider, ttl time.Duration) GoogleOption {
	return func(g *GoogleProvider) {
		g.cache = cache
		if ttl > 0 {
			g.cacheTTL = ttl
		}
	}
}

// WithBaseURL points the provider at another geocoding endpoint (used for tests)
func WithBaseURL(baseURL string) GoogleOption {
	return func(g *GoogleProvider) { g.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(g *GoogleProvider) { g.httpClient = client }
}

// NewGoogleProvider creates a geocoder backed by directory and the Geocoding API.
// region biases results toward a country code, e.g. "in".
func NewGoogleProvider(directory *DirectoryProvider, apiKey, region string, opts ...GoogleOption) *GoogleProvider {
	if directory == nil {
		directory = NewDirectoryProvider(nil)
	}
	g := &GoogleProvider{
		directory:  directory,
		apiKey:     apiKey,
		region:     region,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cacheTTL:   defaultGeocodeCacheTTL,
		baseURL:    googleGeocodeURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode returns the directory coordinate when one exists, otherwise the
// first Geocoding API result for the city.
func (g *GoogleProvider) Geocode(ctx context.Context, city string) (*providers.Coordinates, error) {
	coords, err := g.directory.Geocode(ctx, city)
	if err == nil || !apperrors.IsNotFound(err) {
		return coords, err
	}

	trimmed := strings.TrimSpace(city)
	cacheKey := "geo:city:" + hashKey(strings.ToLower(trimmed))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil {
			var c providers.Coordinates
			if err := json.Unmarshal(cached, &c); err == nil {
				return &c, nil
			}
		}
	}

	resp, err := g.doGeocodeRequest(ctx, url.Values{"address": []string{trimmed}})
	if err != nil {
		var notFound *zeroResultsError
		if errors.As(err, &notFound) {
			return nil, apperrors.NewNotFoundError("no reference point for city " + city)
		}
		return nil, apperrors.NewExternalError("geocoding request failed", err)
	}

	location := resp.Results[0].Geometry.Location
	c := providers.Coordinates{Latitude: location.Lat, Longitude: location.Lng}

	if g.cache != nil {
		if payload, err := json.Marshal(c); err == nil {
			if err := g.cache.Set(ctx, cacheKey, payload, g.cacheTTL); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("city", trimmed).Msg("failed to cache geocode result")
			}
		}
	}
	return &c, nil
}

// CalculateDistance uses the haversine formula
func (g *GoogleProvider) CalculateDistance(ctx context.Context, from, to providers.Coordinates) (float64, error) {
	return Haversine(from, to), nil
}

// Cities lists the directory cities; geocoded cities are not enumerable
func (g *GoogleProvider) Cities(ctx context.Context) ([]string, error) {
	return g.directory.Cities(ctx)
}

type zeroResultsError struct{}

func (*zeroResultsError) Error() string { return "geocode request returned no results" }

func (g *GoogleProvider) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	params.Set("key", g.apiKey)
	if g.region != "" {
		params.Set("region", g.region)
	}
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	switch {
	case payload.Status == "ZERO_RESULTS", payload.Status == "OK" && len(payload.Results) == 0:
		return nil, &zeroResultsError{}
	case payload.Status != "OK":
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("geocode request failed: %s", payload.Status)
	}

	return &payload, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
