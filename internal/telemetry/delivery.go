package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// DeliveryMetrics records webhook delivery counts and latencies.
type DeliveryMetrics struct {
	deliveries metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewDeliveryMetrics registers the webhook delivery instruments on meter.
func NewDeliveryMetrics(meter metric.Meter) (*DeliveryMetrics, error) {
	deliveries, err := meter.Int64Counter("webhook.deliveries",
		metric.WithDescription("Webhook delivery attempts by trigger and result."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating deliveries counter: %w", err)
	}
	duration, err := meter.Float64Histogram("webhook.delivery.duration",
		metric.WithDescription("Time spent delivering one webhook."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivery duration histogram: %w", err)
	}
	return &DeliveryMetrics{deliveries: deliveries, duration: duration}, nil
}

// Observe has the webhook.Hook signature.
func (m *DeliveryMetrics) Observe(ctx context.Context, trigger webhook.TriggerEvent, _ webhook.Subscriber, o webhook.Outcome, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("trigger", string(trigger)),
		attribute.Bool("ok", o.OK),
	)
	m.deliveries.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
