package geolocation

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/musemate/backend/internal/domain/providers"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const earthRadiusKm = 6371.0

// ReferenceCities are the city centers distances are measured from
var ReferenceCities = map[string]providers.Coordinates{
	"Mumbai":     {Latitude: 19.0760, Longitude: 72.8777},
	"Pune":       {Latitude: 18.5204, Longitude: 73.8567},
	"Nagpur":     {Latitude: 21.1458, Longitude: 79.0882},
	"Aurangabad": {Latitude: 19.8762, Longitude: 75.3433},
	"Nashik":     {Latitude: 19.9975, Longitude: 73.7898},
	"Kolhapur":   {Latitude: 16.7050, Longitude: 74.2433},
}

// DirectoryProvider resolves cities from a fixed table of reference points
type DirectoryProvider struct {
	cities map[string]providers.Coordinates
}

// NewDirectoryProvider creates a provider over cities, or ReferenceCities when nil
func NewDirectoryProvider(cities map[string]providers.Coordinates) *DirectoryProvider {
	if cities == nil {
		cities = ReferenceCities
	}
	return &DirectoryProvider{cities: cities}
}

// Geocode matches the city name case-insensitively. Inputs that merely mention
// a known city ("Pune city") also match.
func (p *DirectoryProvider) Geocode(ctx context.Context, city string) (*providers.Coordinates, error) {
	needle := strings.ToLower(strings.TrimSpace(city))
	if needle == "" {
		return nil, apperrors.NewValidationError("city is required")
	}
	for name, coords := range p.cities {
		if strings.ToLower(name) == needle {
			c := coords
			return &c, nil
		}
	}
	for _, name := range p.sortedNames() {
		if strings.Contains(needle, strings.ToLower(name)) {
			c := p.cities[name]
			return &c, nil
		}
	}
	return nil, apperrors.NewNotFoundError("no reference point for city " + city)
}

// CalculateDistance uses the haversine formula
func (p *DirectoryProvider) CalculateDistance(ctx context.Context, from, to providers.Coordinates) (float64, error) {
	return Haversine(from, to), nil
}

// Cities lists the known city names alphabetically
func (p *DirectoryProvider) Cities(ctx context.Context) ([]string, error) {
	return p.sortedNames(), nil
}

func (p *DirectoryProvider) sortedNames() []string {
	names := make([]string, 0, len(p.cities))
	for name := range p.cities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Haversine returns the great-circle distance between two points in kilometers
func Haversine(from, to providers.Coordinates) float64 {
	lat1Rad := toRadians(from.Latitude)
	lat2Rad := toRadians(to.Latitude)
	deltaLat := toRadians(to.Latitude - from.Latitude)
	deltaLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
