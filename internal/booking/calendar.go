package booking

import (
	"net/url"
	"time"
)

// Event is the calendar entry a booking is exported as.
type Event struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Links are "add to calendar" deep links for an Event.
type Links struct {
	Google    string
	Outlook   string
	Office365 string
}

const (
	googleCalendarURL = "https://calendar.google.com/calendar/r/eventedit"
	outlookLiveURL    = "https://outlook.live.com/calendar/0/deeplink/compose"
	office365URL      = "https://outlook.office.com/calendar/0/deeplink/compose"

	googleTimeLayout = "20060102T150405Z"
)

// CalendarLinks builds the Google, Outlook.com and Office 365 links for e.
func CalendarLinks(e Event) Links {
	return Links{
		Google:    googleLink(e),
		Outlook:   outlookLink(outlookLiveURL, e),
		Office365: outlookLink(office365URL, e),
	}
}

func googleLink(e Event) string {
	q := url.Values{}
	q.Set("dates", e.Start.UTC().Format(googleTimeLayout)+"/"+e.End.UTC().Format(googleTimeLayout))
	q.Set("text", e.Title)
	q.Set("details", e.Description)
	if e.Location != "" {
		q.Set("location", e.Location)
	}
	return googleCalendarURL + "?" + q.Encode()
}

func outlookLink(base string, e Event) string {
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("startdt", e.Start.UTC().Format(time.RFC3339))
	q.Set("enddt", e.End.UTC().Format(time.RFC3339))
	q.Set("subject", e.Title)
	q.Set("body", e.Description)
	if e.Location != "" {
		q.Set("location", e.Location)
	}
	return base + "?" + q.Encode()
}
