package booking

import (
	"time"
	_ "time/tzdata" // zone database for images without /usr/share/zoneinfo
)

// DefaultTimeZone is used when neither the viewer nor the attendee has a valid zone.
const DefaultTimeZone = "UTC"

// Layouts used on the confirmation page.
const (
	DateLayout   = "January 02, 2006"
	Clock12Hour  = "3:04pm"
	Clock24Hour  = "15:04"
	TimeFormat24 = "24h"
)

// ResolveLocation returns the first loadable zone among candidates, falling back to UTC.
// The returned name is the zone that was used.
func ResolveLocation(candidates ...string) (*time.Location, string) {
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, name
		}
	}
	return time.UTC, DefaultTimeZone
}

// ClockLayout returns the time-of-day layout for a timeFormat query value.
func ClockLayout(timeFormat string) string {
	if timeFormat == TimeFormat24 {
		return Clock24Hour
	}
	return Clock12Hour
}

// When is the viewer-local rendering of a booking's time slot.
type When struct {
	Date     string
	Start    string
	End      string
	TimeZone string
}

// FormatWhen renders start and end in loc using the given clock layout.
func FormatWhen(start, end time.Time, loc *time.Location, zone, clock string) When {
	s := start.In(loc)
	return When{
		Date:     s.Format(DateLayout),
		Start:    s.Format(clock),
		End:      end.In(loc).Format(clock),
		TimeZone: zone,
	}
}
