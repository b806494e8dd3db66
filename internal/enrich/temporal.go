package enrich

import (
	"strings"
	"time"

	"socialrag/internal/domain"
)

// Day-month-year exports come in a handful of separators; ISO dates are
// accepted as a last resort.
var dateLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2.1.2006",
	"02-01-06",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// ParseDate parses a day-month-year posting date.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	// Some exports append a time to the date column.
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseHour returns the hour of a posting time, or -1.
func ParseHour(raw string) int {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return -1
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()
		}
	}
	return -1
}

// TimeOfDay buckets an hour; -1 yields "unknown".
func TimeOfDay(hour int) string {
	switch {
	case hour < 0 || hour > 23:
		return "unknown"
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

func temporalTier(r domain.Record) domain.Temporal {
	hour := ParseHour(r.PostedTime)
	t := domain.Temporal{
		DayOfWeek: "unknown",
		Hour:      hour,
		TimeOfDay: TimeOfDay(hour),
	}
	d, ok := ParseDate(r.PostedDate)
	if !ok {
		t.Date = "unknown"
		t.YearMonth = "unknown"
		return t
	}
	t.Date = d.Format("2006-01-02")
	t.DateValid = true
	t.Year = d.Year()
	t.Month = int(d.Month())
	t.MonthName = d.Month().String()
	t.Day = d.Day()
	t.Quarter = (t.Month-1)/3 + 1
	t.YearMonth = d.Format("2006-01")
	t.DayOfWeek = d.Weekday().String()
	t.IsWeekend = d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
	return t
}
