// Package booking holds the presentation logic for bookings: the derived
// event name, calendar deep links and viewer-local time formatting.
package booking

import (
	"fmt"
	"strings"
)

// Variables accepted in a custom event name.
const (
	VarAttendee     = "{ATTENDEE}"
	VarHost         = "{HOST}"
	VarHostAttendee = "{HOST/ATTENDEE}"
	VarLocation     = "{LOCATION}"
)

const nameless = "Nameless"

// NameParts are the inputs to EventName.
type NameParts struct {
	// EventType is the event type title.
	EventType string
	// Custom is the event type's custom name template. Empty selects the default name.
	Custom   string
	Host     string
	Attendee string
	Location string
}

// EventName derives the display title of a booking. Without a custom name
// it is "<event type> between <host> and <attendee>". {HOST/ATTENDEE}
// resolves to the other party: the host when forAttendee is true.
func EventName(p NameParts, forAttendee bool) string {
	host := orNameless(p.Host)
	attendee := orNameless(p.Attendee)

	if p.Custom == "" {
		return fmt.Sprintf("%s between %s and %s", p.EventType, host, attendee)
	}

	other := attendee
	if forAttendee {
		other = host
	}
	r := strings.NewReplacer(
		VarHostAttendee, other,
		VarAttendee, attendee,
		VarHost, host,
		VarLocation, p.Location,
	)
	return r.Replace(p.Custom)
}

func orNameless(s string) string {
	if strings.TrimSpace(s) == "" {
		return nameless
	}
	return s
}
