package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-muscles-llc/pulse-kronos/internal/build"
	"github.com/market-muscles-llc/pulse-kronos/internal/config"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

func run(t *testing.T, cfg *config.AppConfig, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(cfg)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, &config.AppConfig{}, "version")

	require.NoError(t, err)
	assert.Equal(t, "pulse-kronos "+build.String()+"\n", out)
}

func TestTriggerCmd_Delivers(t *testing.T) {
	var got map[string]any
	var sigHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sigHeader = r.Header.Get("X-Cal-Signature-256")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.AppConfig{ControlWebhookSecret: "ignored", WebhookTimeout: 5 * time.Second}
	out, err := run(t, cfg, "trigger", "--endpoint", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, `"ok": true`)
	assert.Empty(t, sigHeader)
	assert.Equal(t, "BOOKING_CREATED", got["triggerEvent"])
	assert.Equal(t, "Test trigger event", got["payload"].(map[string]any)["title"])
}

func TestTriggerCmd_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := run(t, &config.AppConfig{WebhookTimeout: 5 * time.Second}, "trigger", "--endpoint", srv.URL)

	require.Error(t, err)
	assert.Contains(t, out, `"status": 500`)
}

func TestTriggerCmd_RequiresEndpoint(t *testing.T) {
	_, err := run(t, &config.AppConfig{}, "trigger")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTROL_WEBHOOK_ENDPOINT")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	printBanner(&buf, "v1.2.3", "http://localhost:3000", "/tmp/logs/system.log")

	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Contains(t, buf.String(), "http://localhost:3000")
	assert.Contains(t, buf.String(), "/tmp/logs/system.log")
}

type stubLister struct {
	subs []webhook.Subscriber
}

func (s *stubLister) ListSubscribersFor(context.Context, int64, int64) ([]webhook.Subscriber, error) {
	return s.subs, nil
}

func TestNewResolver_EmptyEndpointReportsFailedControlDelivery(t *testing.T) {
	cfg := &config.AppConfig{WebhookTimeout: 5 * time.Second}
	_, resolver := newResolver(cfg, nil, &stubLister{})

	outcomes, err := newNotifier(cfg, resolver).Notify(context.Background(),
		webhook.Query{UserID: 1, EventTypeID: 2, Trigger: webhook.BookingCreated},
		"2026-10-16T09:30:00.000Z", webhook.CalendarEvent{Title: "30 min"})

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, webhook.ControlSubscriberID, outcomes[0].SubscriberID)
	assert.False(t, outcomes[0].OK)
	assert.Nil(t, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Message, "no destination URL")
}

func TestNewResolver_ControlFirst(t *testing.T) {
	cfg := &config.AppConfig{ControlWebhookEndpoint: "https://control.example.com/hook", ControlWebhookSecret: "s"}
	static := []webhook.Subscriber{{ID: "audit", SubscriberURL: "https://audit.example.com", Active: true, EventTriggers: webhook.AllTriggers()}}
	stored := &stubLister{subs: []webhook.Subscriber{{ID: "crm", SubscriberURL: "https://crm.example.com", Active: true, EventTriggers: webhook.AllTriggers()}}}

	control, resolver := newResolver(cfg, static, stored)
	subs, err := resolver.Resolve(context.Background(), webhook.Query{UserID: 1, Trigger: webhook.BookingCancelled})

	require.NoError(t, err)
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{webhook.ControlSubscriberID, "audit", "crm"}, ids)
	assert.Equal(t, "https://control.example.com/hook", control.URL)
	assert.Equal(t, "s", subs[0].Secret)
}
