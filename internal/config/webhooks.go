package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// rawWebhookEntry is one subscriber as written in the webhooks YAML file.
type rawWebhookEntry struct {
	URL             string   `yaml:"url"`
	Secret          string   `yaml:"secret"`
	PayloadTemplate string   `yaml:"payload_template"`
	UserID          int64    `yaml:"user_id"`
	EventTypeID     int64    `yaml:"event_type_id"`
	Triggers        []string `yaml:"triggers"`
	Active          *bool    `yaml:"active"`
}

// LoadWebhooks reads static subscribers from the YAML file at filePath. The
// file maps a subscriber ID to its settings:
//
//	audit-log:
//	  url: https://audit.example.com/hooks
//	  secret: ${ENV:AUDIT_HOOK_SECRET}
//	  triggers: [BOOKING_CREATED, BOOKING_CANCELLED]
//
// url and secret support ${ENV:VAR_NAME} substitution. An entry without
// triggers subscribes to every trigger; active defaults to true. A missing
// file yields no subscribers. Subscribers are returned sorted by ID.
func LoadWebhooks(filePath string) ([]webhook.Subscriber, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // path comes from operator configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading webhooks file %q: %w", filePath, err)
	}

	var raw map[string]rawWebhookEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing webhooks file %q: %w", filePath, err)
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now().UTC()
	subs := make([]webhook.Subscriber, 0, len(raw))
	for _, id := range ids {
		entry := raw[id]
		if id == webhook.ControlSubscriberID {
			return nil, fmt.Errorf("webhook %q: id is reserved", id)
		}

		url, err := interpolateEnv(entry.URL)
		if err != nil {
			return nil, fmt.Errorf("webhook %q url: %w", id, err)
		}
		secret, err := interpolateEnv(entry.Secret)
		if err != nil {
			return nil, fmt.Errorf("webhook %q secret: %w", id, err)
		}

		triggers := webhook.AllTriggers()
		if len(entry.Triggers) > 0 {
			triggers = make([]webhook.TriggerEvent, 0, len(entry.Triggers))
			for _, t := range entry.Triggers {
				trigger, err := webhook.ParseTriggerEvent(t)
				if err != nil {
					return nil, fmt.Errorf("webhook %q: %w", id, err)
				}
				triggers = append(triggers, trigger)
			}
		}

		active := true
		if entry.Active != nil {
			active = *entry.Active
		}

		subs = append(subs, webhook.Subscriber{
			ID:              id,
			SubscriberURL:   url,
			PayloadTemplate: entry.PayloadTemplate,
			Secret:          secret,
			UserID:          entry.UserID,
			EventTypeID:     entry.EventTypeID,
			Active:          active,
			EventTriggers:   triggers,
			CreatedAt:       now,
		})
	}
	return subs, nil
}

// interpolateEnv replaces all ${ENV:VAR_NAME} patterns in s with the corresponding
// environment variable values. Returns an error if a referenced variable is not set.
func interpolateEnv(s string) (string, error) {
	result := s
	for {
		start := strings.Index(result, "${ENV:")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}")
		if end == -1 {
			break
		}
		end += start
		varName := result[start+6 : end]
		value := os.Getenv(varName)
		if value == "" {
			return "", fmt.Errorf("required env var %q is not set", varName)
		}
		result = result[:start] + value + result[end+1:]
	}
	return result, nil
}
