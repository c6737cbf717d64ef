package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

// CityMuseums lists the museums of a city
type CityMuseums interface {
	ListByCity(ctx context.Context, city string, limit int) ([]*entities.Museum, error)
}

// TripPlannerService builds distance-ranked, budget-limited itineraries
type TripPlannerService struct {
	museums CityMuseums
	geo     providers.GeolocationProvider
}

func NewTripPlannerService(museums CityMuseums, geo providers.GeolocationProvider) *TripPlannerService {
	return &TripPlannerService{museums: museums, geo: geo}
}

// Plan keeps museums of the city that are not closed on the requested day,
// ranks them by distance from the city center and truncates to the budget.
func (s *TripPlannerService) Plan(ctx context.Context, req entities.TripRequest) (*entities.TripPlan, error) {
	city := strings.TrimSpace(req.City)
	if city == "" {
		return nil, apperrors.NewValidationError("city is required")
	}
	if req.Date.IsZero() {
		return nil, apperrors.NewValidationError("date is required")
	}
	if h := req.Hours; h != nil && (*h <= 0 || math.IsNaN(*h) || math.IsInf(*h, 0)) {
		return nil, apperrors.NewValidationError("hours must be positive")
	}

	museums, err := s.museums.ListByCity(ctx, city, 0)
	if err != nil {
		return nil, err
	}

	weekday := req.Date.Weekday()
	eligible := make([]*entities.Museum, 0, len(museums))
	for _, m := range museums {
		if m.OpenOn(weekday) {
			eligible = append(eligible, m)
		}
	}

	center, stops := s.Rank(ctx, city, eligible)
	budget := req.Budget()
	if len(stops) > budget {
		stops = stops[:budget]
	}

	return &entities.TripPlan{
		City:       city,
		Date:       req.Date.Format("2006-01-02"),
		Weekday:    weekday.String(),
		Budget:     budget,
		CityCenter: center,
		Eligible:   len(eligible),
		Stops:      stops,
	}, nil
}

// Rank orders museums by distance from the city center, known distances
// first. Input order is kept among equal and unknown distances.
func (s *TripPlannerService) Rank(ctx context.Context, city string, museums []*entities.Museum) (*entities.GeoPoint, []entities.TripStop) {
	var center *providers.Coordinates
	if s.geo != nil {
		c, err := s.geo.Geocode(ctx, city)
		switch {
		case err == nil:
			center = c
		case !apperrors.IsNotFound(err):
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("city", city).Msg("failed to geocode trip city")
		}
	}

	stops := make([]entities.TripStop, 0, len(museums))
	for _, m := range museums {
		stops = append(stops, entities.NewTripStop(m, s.distance(ctx, center, m)))
	}

	sort.SliceStable(stops, func(i, j int) bool {
		a, b := stops[i].DistanceKm, stops[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	if center == nil {
		return nil, stops
	}
	return &entities.GeoPoint{Latitude: center.Latitude, Longitude: center.Longitude}, stops
}

func (s *TripPlannerService) distance(ctx context.Context, center *providers.Coordinates, m *entities.Museum) *float64 {
	if center == nil {
		return nil
	}
	p, ok := m.Location()
	if !ok {
		return nil
	}
	d, err := s.geo.CalculateDistance(ctx, *center, providers.Coordinates{Latitude: p.Latitude, Longitude: p.Longitude})
	if err != nil {
		return nil
	}
	return &d
}
