package entities

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Museum is a catalog record. The core never mutates it.
type Museum struct {
	ID              string        `json:"id" db:"id"`
	Name            string        `json:"name" db:"name"`
	City            string        `json:"city" db:"city"`
	Type            string        `json:"type" db:"type"`
	Description     string        `json:"description" db:"description"`
	Address         string        `json:"address" db:"address"`
	Established     string        `json:"established,omitempty" db:"established"`
	EntryFee        string        `json:"entry_fee" db:"entry_fee"`
	BookingLink     string        `json:"booking_link,omitempty" db:"booking_link"`
	Contact         string        `json:"contact,omitempty" db:"contact"`
	Website         string        `json:"website,omitempty" db:"website"`
	Timings         string        `json:"timings" db:"timings"`
	DetailedTimings WeeklyTimings `json:"detailed_timings,omitempty" db:"-"`
	Latitude        Coordinate    `json:"latitude,omitempty" db:"latitude"`
	Longitude       Coordinate    `json:"longitude,omitempty" db:"longitude"`
	Reviews         []Review      `json:"reviews,omitempty" db:"-"`
	Pricing         *Pricing      `json:"pricing,omitempty" db:"-"`
	CreatedAt       time.Time     `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at,omitempty" db:"updated_at"`
}

// Review is a visitor rating between 1 and 5
type Review struct {
	User    string `json:"user"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Pricing holds ticket prices as display strings
type Pricing struct {
	Adult string `json:"adult"`
	Child string `json:"child"`
}

// GeoPoint is a parsed latitude/longitude pair
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinate keeps a latitude or longitude as received. Source data carries both
// numbers and numeric strings, so parsing is deferred to Float.
type Coordinate string

// Float parses the coordinate; ok is false for empty, malformed, NaN or infinite values.
func (c Coordinate) Float() (float64, bool) {
	s := strings.TrimSpace(string(c))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null" || raw == "":
		*c = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate(s)
	default:
		*c = Coordinate(raw)
	}
	return nil
}

// MarshalJSON emits a number when the value parses, otherwise null
func (c Coordinate) MarshalJSON() ([]byte, error) {
	v, ok := c.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Scalar is a JSON string or number kept in string form. Catalog ids and
// founding years arrive as either.
type Scalar string

// UnmarshalJSON accepts a JSON string, a number, or null
func (v *Scalar) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null" || raw == "":
		*v = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Scalar(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", raw)
		}
		*v = Scalar(n.String())
	}
	return nil
}

// Location returns the museum position when both coordinates parse
func (m *Museum) Location() (GeoPoint, bool) {
	lat, okLat := m.Latitude.Float()
	lng, okLng := m.Longitude.Float()
	if !okLat || !okLng {
		return GeoPoint{}, false
	}
	return GeoPoint{Latitude: lat, Longitude: lng}, true
}

// AverageRating is the arithmetic mean of review ratings, 0 with no reviews
func (m *Museum) AverageRating() float64 {
	return AverageRating(m.Reviews)
}

// AverageRating is the arithmetic mean of review ratings, 0 with no reviews
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

// InCity reports whether the museum city contains city, case-insensitively
func (m *Museum) InCity(city string) bool {
	return containsFold(m.City, city)
}

// MatchesText reports whether query is a substring of the name, city, type or description
func (m *Museum) MatchesText(query string) bool {
	return containsFold(m.Name, query) ||
		containsFold(m.City, query) ||
		containsFold(m.Type, query) ||
		containsFold(m.Description, query)
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// BookingURL returns the museum's booking link, or a ticketing search slug when it has none
func (m *Museum) BookingURL() string {
	if m.BookingLink != "" {
		return m.BookingLink
	}
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(m.Name), "-"), "-")
	return "https://bookmyshow.com/" + slug
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}
