package entities

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WeeklyTimings maps lower-case weekday names to free-text hours such as
// "10:00 AM - 6:00 PM" or "Closed".
type WeeklyTimings map[string]string

// DayStatus is the canonical open/closed answer for one weekday
type DayStatus string

const (
	DayOpen    DayStatus = "open"
	DayClosed  DayStatus = "closed"
	DayUnknown DayStatus = "unknown"
)

// Week lists weekdays in display order, Monday first
var Week = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayKey is the WeeklyTimings key for d
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// Entry returns the hours text for d, looked up case-insensitively
func (w WeeklyTimings) Entry(d time.Weekday) (string, bool) {
	if len(w) == 0 {
		return "", false
	}
	if v, ok := w[WeekdayKey(d)]; ok {
		return v, true
	}
	for k, v := range w {
		if strings.EqualFold(strings.TrimSpace(k), d.String()) {
			return v, true
		}
	}
	return "", false
}

// DayStatus applies the single open rule used everywhere: a day is closed only
// when its entry says so, and a missing entry is unknown.
func (m *Museum) DayStatus(d time.Weekday) (DayStatus, string) {
	entry, ok := m.DetailedTimings.Entry(d)
	if !ok {
		return DayUnknown, ""
	}
	if strings.Contains(strings.ToLower(entry), "closed") {
		return DayClosed, entry
	}
	return DayOpen, entry
}

// OpenOn reports whether d is not a known closing day
func (m *Museum) OpenOn(d time.Weekday) bool {
	status, _ := m.DayStatus(d)
	return status != DayClosed
}

// AcceptsVisit reports whether some listed open day has hours covering window.
// Hours that cannot be parsed count as covering it. When no day is listed as
// open, unlisted days keep the museum eligible.
func (m *Museum) AcceptsVisit(window ClockRange) bool {
	if len(m.DetailedTimings) == 0 {
		hours, ok := ParseHours(m.Timings)
		return !ok || hours.Overlaps(window)
	}
	sawUnknown, sawOpen := false, false
	for _, d := range Week {
		status, entry := m.DayStatus(d)
		switch status {
		case DayClosed:
			continue
		case DayUnknown:
			sawUnknown = true
			continue
		}
		sawOpen = true
		hours, ok := ParseHours(entry)
		if !ok || hours.Overlaps(window) {
			return true
		}
	}
	return sawUnknown && !sawOpen
}

// ClockRange is a half-open interval of minutes since midnight
type ClockRange struct {
	Start int
	End   int
}

// Overlaps reports whether the two ranges share at least one minute
func (r ClockRange) Overlaps(other ClockRange) bool {
	return r.Start < other.End && other.Start < r.End
}

const minutesPerDay = 24 * 60

var (
	hoursPattern = regexp.MustCompile(`(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)?\s*-\s*(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)?`)
	clockPattern = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)?\b`)
	hoursDashes  = strings.NewReplacer("–", "-", "—", "-", " to ", " - ", "a.m.", "am", "p.m.", "pm")
)

// ParseHours extracts an opening range from free text like "9:30 AM – 5:30 PM" or "10-5".
// A closing time without a meridiem that is not after the opening time is read as PM.
func ParseHours(text string) (ClockRange, bool) {
	s := hoursDashes.Replace(strings.ToLower(text))
	if strings.Contains(s, "24 hours") || strings.Contains(s, "24x7") {
		return ClockRange{Start: 0, End: minutesPerDay}, true
	}

	m := hoursPattern.FindStringSubmatch(s)
	if m == nil {
		return ClockRange{}, false
	}
	start, ok := clockMinutes(m[1], m[2], m[3])
	if !ok {
		return ClockRange{}, false
	}
	end, ok := clockMinutes(m[4], m[5], m[6])
	if !ok {
		return ClockRange{}, false
	}
	if m[6] == "" && end <= start {
		end += 12 * 60
	}
	if end <= start || end > minutesPerDay {
		return ClockRange{}, false
	}
	return ClockRange{Start: start, End: end}, true
}

var visitWindows = []struct {
	words  []string
	window ClockRange
}{
	{[]string{"morning"}, ClockRange{Start: 9 * 60, End: 12 * 60}},
	{[]string{"afternoon", "noon"}, ClockRange{Start: 12 * 60, End: 17 * 60}},
	{[]string{"evening"}, ClockRange{Start: 17 * 60, End: 21 * 60}},
	{[]string{"am"}, ClockRange{Start: 9 * 60, End: 12 * 60}},
	{[]string{"pm"}, ClockRange{Start: 12 * 60, End: 17 * 60}},
}

// ParseVisitTime turns a requested visiting time ("10:00 AM", "2 pm", "morning")
// into the window a museum must be open for.
func ParseVisitTime(input string) (ClockRange, bool) {
	s := hoursDashes.Replace(strings.ToLower(strings.TrimSpace(input)))
	if s == "" {
		return ClockRange{}, false
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		minute, ok := clockMinutes(m[1], m[2], m[3])
		if ok {
			// Bare small hours ("at 3") mean afternoon for a museum visit.
			if m[3] == "" && minute >= 60 && minute < 8*60 {
				minute += 12 * 60
			}
			return ClockRange{Start: minute, End: minute + 1}, true
		}
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, vw := range visitWindows {
		for _, word := range vw.words {
			for _, f := range fields {
				if f == word {
					return vw.window, true
				}
			}
		}
	}
	return ClockRange{}, false
}

func clockMinutes(hourText, minuteText, meridiem string) (int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, false
	}
	minute := 0
	if minuteText != "" {
		if minute, err = strconv.Atoi(minuteText); err != nil || minute > 59 {
			return 0, false
		}
	}
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 24 || (hour == 24 && minute > 0) {
			return 0, false
		}
	}
	return hour*60 + minute, true
}
