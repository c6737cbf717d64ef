package providers

import (
	"context"
)

// GeolocationProvider resolves city reference points and distances
type GeolocationProvider interface {
	// Geocode returns the reference coordinate of a city, or a NOT_FOUND error
	Geocode(ctx context.Context, city string) (*Coordinates, error)

	// CalculateDistance calculates the great-circle distance in kilometers
	CalculateDistance(ctx context.Context, from, to Coordinates) (float64, error)

	// Cities lists the cities with a known reference point
	Cities(ctx context.Context) ([]string, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
