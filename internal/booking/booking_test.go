package booking_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-muscles-llc/pulse-kronos/internal/booking"
)

func TestEventName(t *testing.T) {
	tests := []struct {
		name        string
		parts       booking.NameParts
		forAttendee bool
		want        string
	}{
		{
			name:  "default name",
			parts: booking.NameParts{EventType: "30 Min Meeting", Host: "Ada", Attendee: "Bob"},
			want:  "30 Min Meeting between Ada and Bob",
		},
		{
			name:  "missing names become Nameless",
			parts: booking.NameParts{EventType: "Call", Host: " ", Attendee: ""},
			want:  "Call between Nameless and Nameless",
		},
		{
			name:  "attendee and host variables",
			parts: booking.NameParts{EventType: "Call", Custom: "{HOST} <> {ATTENDEE}", Host: "Ada", Attendee: "Bob"},
			want:  "Ada <> Bob",
		},
		{
			name:        "other party for attendee view",
			parts:       booking.NameParts{Custom: "Meeting with {HOST/ATTENDEE}", Host: "Ada", Attendee: "Bob"},
			forAttendee: true,
			want:        "Meeting with Ada",
		},
		{
			name:  "other party for host view",
			parts: booking.NameParts{Custom: "Meeting with {HOST/ATTENDEE}", Host: "Ada", Attendee: "Bob"},
			want:  "Meeting with Bob",
		},
		{
			name:  "location and repeated variables",
			parts: booking.NameParts{Custom: "{ATTENDEE} @ {LOCATION} ({ATTENDEE})", Attendee: "Bob", Location: "Zoom"},
			want:  "Bob @ Zoom (Bob)",
		},
		{
			name:  "no variables",
			parts: booking.NameParts{Custom: "Standup", Host: "Ada", Attendee: "Bob"},
			want:  "Standup",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, booking.EventName(tt.parts, tt.forAttendee))
		})
	}
}

func TestCalendarLinks(t *testing.T) {
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	links := booking.CalendarLinks(booking.Event{
		Title:       "Intro & Q/A",
		Description: "Agenda",
		Location:    "Room 1",
		Start:       start,
		End:         start.Add(30 * time.Minute),
	})

	g, err := url.Parse(links.Google)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", g.Host)
	assert.Equal(t, "20261020T090000Z/20261020T093000Z", g.Query().Get("dates"))
	assert.Equal(t, "Intro & Q/A", g.Query().Get("text"))
	assert.Equal(t, "Room 1", g.Query().Get("location"))

	for _, raw := range []string{links.Outlook, links.Office365} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "2026-10-20T09:00:00Z", q.Get("startdt"))
		assert.Equal(t, "2026-10-20T09:30:00Z", q.Get("enddt"))
		assert.Equal(t, "Intro & Q/A", q.Get("subject"))
		assert.Equal(t, "addevent", q.Get("rru"))
	}
	assert.True(t, strings.HasPrefix(links.Outlook, "https://outlook.live.com/"))
	assert.True(t, strings.HasPrefix(links.Office365, "https://outlook.office.com/"))
}

func TestCalendarLinks_NoLocation(t *testing.T) {
	links := booking.CalendarLinks(booking.Event{Title: "x", Start: time.Now(), End: time.Now()})
	assert.NotContains(t, links.Google, "location=")
	assert.NotContains(t, links.Outlook, "location=")
}

func TestResolveLocation(t *testing.T) {
	loc, name := booking.ResolveLocation("", "Not/AZone", "Asia/Tokyo", "Europe/London")
	assert.Equal(t, "Asia/Tokyo", name)
	assert.Equal(t, "Asia/Tokyo", loc.String())

	loc, name = booking.ResolveLocation("America/New York")
	assert.Equal(t, booking.DefaultTimeZone, name)
	assert.Equal(t, time.UTC, loc)
}

func TestFormatWhen(t *testing.T) {
	start := time.Date(2026, 1, 2, 14, 5, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	loc, zone := booking.ResolveLocation("Asia/Tokyo")

	w := booking.FormatWhen(start, end, loc, zone, booking.ClockLayout(""))
	assert.Equal(t, "January 02, 2026", w.Date)
	assert.Equal(t, "11:05pm", w.Start)
	assert.Equal(t, "11:50pm", w.End)
	assert.Equal(t, "Asia/Tokyo", w.TimeZone)

	w = booking.FormatWhen(start, end, loc, zone, booking.ClockLayout("24h"))
	assert.Equal(t, "23:05", w.Start)
	assert.Equal(t, "23:50", w.End)

	// Crossing midnight moves the date.
	w = booking.FormatWhen(start.Add(2*time.Hour), end.Add(2*time.Hour), loc, zone, booking.Clock24Hour)
	assert.Equal(t, "January 03, 2026", w.Date)
	assert.Equal(t, "01:05", w.Start)
}
