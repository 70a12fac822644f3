package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

func TestSetup_ExposesDeliveryMetrics(t *testing.T) {
	tel, err := Setup(context.Background(), Options{Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	assert.Nil(t, tel.LogHandler())

	m, err := NewDeliveryMetrics(tel.Meter("webhook"))
	require.NoError(t, err)

	var hook webhook.Hook = m.Observe
	hook(context.Background(), webhook.BookingCreated, webhook.Subscriber{ID: "control"}, webhook.Outcome{OK: true}, 20*time.Millisecond)
	hook(context.Background(), webhook.BookingCreated, webhook.Subscriber{ID: "control"}, webhook.Outcome{OK: false}, time.Second)

	rec := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "webhook_deliveries")
	assert.Contains(t, string(body), "webhook_delivery_duration")
	assert.Contains(t, string(body), `trigger="BOOKING_CREATED"`)
	assert.Contains(t, string(body), "go_goroutines")
}
