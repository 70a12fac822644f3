package webhook

import (
	"encoding/json"
	"fmt"
)

// Language carries the locale a participant reads notifications in.
type Language struct {
	Locale string `json:"locale"`
}

// Person is an organizer or attendee of a booking.
type Person struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	TimeZone string   `json:"timeZone"`
	Language Language `json:"language"`
}

// CalendarEvent is the event data delivered to subscribers.
type CalendarEvent struct {
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	AdditionalNotes string   `json:"additionalNotes,omitempty"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	Organizer       Person   `json:"organizer"`
	Attendees       []Person `json:"attendees"`
	Location        string   `json:"location,omitempty"`
	UID             string   `json:"uid,omitempty"`
}

// Envelope is the default body sent when a subscriber has no template.
type Envelope struct {
	TriggerEvent TriggerEvent  `json:"triggerEvent"`
	CreatedAt    string        `json:"createdAt"`
	Payload      CalendarEvent `json:"payload"`
}

// BuildPayload renders the body delivered to sub. createdAt is an ISO-8601
// timestamp. Subscribers with a payload template get the rendered template
// verbatim; everyone else gets the JSON Envelope.
func BuildPayload(sub Subscriber, trigger TriggerEvent, createdAt string, data CalendarEvent) ([]byte, error) {
	if sub.PayloadTemplate != "" {
		body, err := RenderTemplate(sub.PayloadTemplate, templateValues(trigger, createdAt, data))
		if err != nil {
			return nil, fmt.Errorf("rendering payload template: %w", err)
		}
		return []byte(body), nil
	}

	body, err := json.Marshal(Envelope{TriggerEvent: trigger, CreatedAt: createdAt, Payload: data})
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return body, nil
}

func templateValues(trigger TriggerEvent, createdAt string, data CalendarEvent) map[Placeholder]string {
	var attendee Person
	if len(data.Attendees) > 0 {
		attendee = data.Attendees[0]
	}
	return map[Placeholder]string{
		PlaceholderTriggerEvent:      string(trigger),
		PlaceholderCreatedAt:         createdAt,
		PlaceholderType:              data.Type,
		PlaceholderTitle:             data.Title,
		PlaceholderDescription:       data.Description,
		PlaceholderAdditionalNotes:   data.AdditionalNotes,
		PlaceholderStartTime:         data.StartTime,
		PlaceholderEndTime:           data.EndTime,
		PlaceholderLocation:          data.Location,
		PlaceholderUID:               data.UID,
		PlaceholderOrganizerName:     data.Organizer.Name,
		PlaceholderOrganizerEmail:    data.Organizer.Email,
		PlaceholderOrganizerTimeZone: data.Organizer.TimeZone,
		PlaceholderAttendeeName:      attendee.Name,
		PlaceholderAttendeeEmail:     attendee.Email,
		PlaceholderAttendeeTimeZone:  attendee.TimeZone,
	}
}
