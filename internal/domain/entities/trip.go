package entities

import (
	"fmt"
	"time"
)

// DefaultHighlightCount is the itinerary size when no visiting hours are given
const DefaultHighlightCount = 3

// TripRequest asks for an itinerary in one city on one day
type TripRequest struct {
	City      string
	Date      time.Time
	Hours     *float64
	TimeOfDay string
}

// Budget is the number of stops the itinerary may contain
func (r TripRequest) Budget() int {
	if r.Hours == nil {
		return DefaultHighlightCount
	}
	n := int(*r.Hours / 2)
	if n < 1 {
		return 1
	}
	return n
}

// TripStop is one museum in an itinerary. DistanceKm is nil when either end of the
// distance has no usable coordinate.
type TripStop struct {
	Museum     *Museum  `json:"museum"`
	DistanceKm *float64 `json:"distance_km"`
	Distance   string   `json:"distance"`
}

// NewTripStop formats the display distance to one decimal place
func NewTripStop(m *Museum, distanceKm *float64) TripStop {
	label := "distance unknown"
	if distanceKm != nil {
		label = fmt.Sprintf("%.1f km", *distanceKm)
	}
	return TripStop{Museum: m, DistanceKm: distanceKm, Distance: label}
}

// TripPlan is a ranked, budget-limited itinerary
type TripPlan struct {
	City       string     `json:"city"`
	Date       string     `json:"date"`
	Weekday    string     `json:"weekday"`
	Budget     int        `json:"budget"`
	CityCenter *GeoPoint  `json:"city_center,omitempty"`
	Eligible   int        `json:"eligible"`
	Stops      []TripStop `json:"stops"`
}

// MuseumVisit records that a user looked at a museum
type MuseumVisit struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	MuseumID  string    `json:"museum_id" db:"museum_id"`
	VisitedAt time.Time `json:"visited_at" db:"visited_at"`
}
