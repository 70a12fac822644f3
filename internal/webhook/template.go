package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Placeholder is a key that may appear as {{key}} in a payload template.
type Placeholder string

const (
	PlaceholderTriggerEvent      Placeholder = "triggerEvent"
	PlaceholderCreatedAt         Placeholder = "createdAt"
	PlaceholderType              Placeholder = "type"
	PlaceholderTitle             Placeholder = "title"
	PlaceholderDescription       Placeholder = "description"
	PlaceholderAdditionalNotes   Placeholder = "additionalNotes"
	PlaceholderStartTime         Placeholder = "startTime"
	PlaceholderEndTime           Placeholder = "endTime"
	PlaceholderLocation          Placeholder = "location"
	PlaceholderUID               Placeholder = "uid"
	PlaceholderOrganizerName     Placeholder = "organizer.name"
	PlaceholderOrganizerEmail    Placeholder = "organizer.email"
	PlaceholderOrganizerTimeZone Placeholder = "organizer.timeZone"
	PlaceholderAttendeeName      Placeholder = "attendee.name"
	PlaceholderAttendeeEmail     Placeholder = "attendee.email"
	PlaceholderAttendeeTimeZone  Placeholder = "attendee.timeZone"
)

var placeholderRE = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// UnknownPlaceholderError is returned when a template references a key
// outside the known placeholder set.
type UnknownPlaceholderError struct {
	Key string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("unknown placeholder %q", e.Key)
}

var knownPlaceholders = map[Placeholder]bool{
	PlaceholderTriggerEvent: true, PlaceholderCreatedAt: true, PlaceholderType: true,
	PlaceholderTitle: true, PlaceholderDescription: true, PlaceholderAdditionalNotes: true,
	PlaceholderStartTime: true, PlaceholderEndTime: true, PlaceholderLocation: true,
	PlaceholderUID: true, PlaceholderOrganizerName: true, PlaceholderOrganizerEmail: true,
	PlaceholderOrganizerTimeZone: true, PlaceholderAttendeeName: true,
	PlaceholderAttendeeEmail: true, PlaceholderAttendeeTimeZone: true,
}

// ValidateTemplate reports the first placeholder in tmpl that BuildPayload
// cannot fill.
func ValidateTemplate(tmpl string) error {
	for _, m := range placeholderRE.FindAllStringSubmatch(tmpl, -1) {
		if !knownPlaceholders[Placeholder(m[1])] {
			return &UnknownPlaceholderError{Key: m[1]}
		}
	}
	return nil
}

// RenderTemplate replaces every {{key}} in tmpl with the JSON-string-escaped
// value for key. Keys must be present in values; the first unknown key
// aborts rendering. The result is not validated any further.
func RenderTemplate(tmpl string, values map[Placeholder]string) (string, error) {
	for _, m := range placeholderRE.FindAllStringSubmatch(tmpl, -1) {
		if _, ok := values[Placeholder(m[1])]; !ok {
			return "", &UnknownPlaceholderError{Key: m[1]}
		}
	}

	return placeholderRE.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderRE.FindStringSubmatch(match)[1]
		return escapeJSONString(values[Placeholder(key)])
	}), nil
}

// escapeJSONString returns s escaped for use inside a JSON string literal,
// without the surrounding quotes.
func escapeJSONString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(b[1 : len(b)-1])
}
