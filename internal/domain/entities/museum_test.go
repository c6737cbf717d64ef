package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate_AcceptsNumbersAndStrings(t *testing.T) {
	var m Museum
	err := json.Unmarshal([]byte(`{"latitude": 18.52, "longitude": "73.85"}`), &m)
	require.NoError(t, err)

	loc, ok := m.Location()
	require.True(t, ok)
	assert.InDelta(t, 18.52, loc.Latitude, 1e-9)
	assert.InDelta(t, 73.85, loc.Longitude, 1e-9)
}

func TestCoordinate_RejectsUnusableValues(t *testing.T) {
	for _, raw := range []string{"", "abc", "NaN", "Inf", "  "} {
		_, ok := Coordinate(raw).Float()
		assert.False(t, ok, raw)
	}

	var m Museum
	require.NoError(t, json.Unmarshal([]byte(`{"latitude": null, "longitude": "73.85"}`), &m))
	_, ok := m.Location()
	assert.False(t, ok)

	out, err := json.Marshal(Coordinate("NaN"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 3.0, AverageRating([]Review{{Rating: 4}, {Rating: 2}}))

	m := &Museum{Reviews: []Review{{Rating: 5}, {Rating: 4}, {Rating: 3}}}
	assert.Equal(t, 4.0, m.AverageRating())
}

func TestBookingURL(t *testing.T) {
	withLink := &Museum{Name: "Raja Dinkar Kelkar Museum", BookingLink: "https://tickets.example/kelkar"}
	assert.Equal(t, "https://tickets.example/kelkar", withLink.BookingURL())

	withoutLink := &Museum{Name: "Aga Khan Palace (Pune)"}
	assert.Equal(t, "https://bookmyshow.com/aga-khan-palace-pune", withoutLink.BookingURL())
}

func TestDayStatus(t *testing.T) {
	m := &Museum{DetailedTimings: WeeklyTimings{
		"monday":  "10:00 AM - 6:00 PM",
		"tuesday": "Closed",
		"Sunday":  "CLOSED for maintenance",
	}}

	status, hours := m.DayStatus(time.Monday)
	assert.Equal(t, DayOpen, status)
	assert.Equal(t, "10:00 AM - 6:00 PM", hours)

	status, _ = m.DayStatus(time.Tuesday)
	assert.Equal(t, DayClosed, status)

	status, _ = m.DayStatus(time.Sunday)
	assert.Equal(t, DayClosed, status)

	status, _ = m.DayStatus(time.Wednesday)
	assert.Equal(t, DayUnknown, status)
	assert.True(t, m.OpenOn(time.Wednesday))
	assert.False(t, m.OpenOn(time.Tuesday))

	noTimings := &Museum{}
	status, _ = noTimings.DayStatus(time.Friday)
	assert.Equal(t, DayUnknown, status)
}

func TestParseHours(t *testing.T) {
	cases := []struct {
		in         string
		start, end int
		ok         bool
	}{
		{"10:00 AM - 6:00 PM", 600, 1080, true},
		{"9:30 AM – 5:30 PM", 570, 1050, true},
		{"10-5", 600, 1020, true},
		{"9:00 to 17:30", 540, 1050, true},
		{"Open 24 hours", 0, 1440, true},
		{"12 PM - 8 PM", 720, 1200, true},
		{"Closed", 0, 0, false},
		{"By appointment", 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r, ok := ParseHours(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, ClockRange{Start: tc.start, End: tc.end}, r)
			}
		})
	}
}

func TestParseVisitTime(t *testing.T) {
	cases := []struct {
		in   string
		want ClockRange
		ok   bool
	}{
		{"10:00 AM", ClockRange{Start: 600, End: 601}, true},
		{"2:00 PM", ClockRange{Start: 840, End: 841}, true},
		{"around 3", ClockRange{Start: 900, End: 901}, true},
		{"morning", ClockRange{Start: 540, End: 720}, true},
		{"late afternoon please", ClockRange{Start: 720, End: 1020}, true},
		{"evening", ClockRange{Start: 1020, End: 1260}, true},
		{"whenever", ClockRange{}, false},
		{"", ClockRange{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseVisitTime(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAcceptsVisit(t *testing.T) {
	morning, _ := ParseVisitTime("morning")
	evening, _ := ParseVisitTime("8 pm")

	daytime := &Museum{DetailedTimings: WeeklyTimings{
		"monday":  "Closed",
		"tuesday": "10:00 AM - 5:00 PM",
	}}
	assert.True(t, daytime.AcceptsVisit(morning))
	assert.False(t, daytime.AcceptsVisit(evening))

	unparsed := &Museum{DetailedTimings: WeeklyTimings{"monday": "Varies by season"}}
	assert.True(t, unparsed.AcceptsVisit(evening))

	allClosed := &Museum{DetailedTimings: WeeklyTimings{"monday": "Closed"}}
	assert.True(t, allClosed.AcceptsVisit(morning), "unlisted days stay eligible")

	flat := &Museum{Timings: "11 AM - 7 PM"}
	assert.False(t, flat.AcceptsVisit(ClockRange{Start: 540, End: 541}))
	assert.True(t, flat.AcceptsVisit(ClockRange{Start: 700, End: 701}))
}

func TestTripRequestBudget(t *testing.T) {
	hours := func(h float64) *float64 { return &h }

	assert.Equal(t, DefaultHighlightCount, TripRequest{}.Budget())
	assert.Equal(t, 3, TripRequest{Hours: hours(6)}.Budget())
	assert.Equal(t, 1, TripRequest{Hours: hours(1)}.Budget())
	assert.Equal(t, 2, TripRequest{Hours: hours(5.5)}.Budget())
}

func TestMessageText(t *testing.T) {
	msg := NewMessage(
		Heading("Chhatrapati Shivaji Maharaj Vastu Sangrahalaya"),
		Detail("📍", "Mumbai | 🏛️ History"),
		ListItem(1, "Dr. Bhau Daji Lad Museum"),
		Paragraph("Enjoy your visit!"),
	)

	assert.Equal(t,
		"**Chhatrapati Shivaji Maharaj Vastu Sangrahalaya**\n📍 Mumbai | 🏛️ History\n1. Dr. Bhau Daji Lad Museum\nEnjoy your visit!",
		msg.Text())

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	var back Message
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, msg.Blocks, back.Blocks)
}
