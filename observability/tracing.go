package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/fairlx/fanout"

// Tracer provides OpenTelemetry tracing for delivery attempts.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer backed by the global otel provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartDeliverySpan starts a span for one delivery attempt.
func (t *Tracer) StartDeliverySpan(ctx context.Context, deliveryID, eventType, webhookID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "fanout.delivery",
		trace.WithAttributes(
			attribute.String("fanout.delivery_id", deliveryID),
			attribute.String("fanout.event", eventType),
			attribute.String("fanout.webhook_id", webhookID),
		),
	)
}

// EndDeliverySpan ends a delivery span with result attributes.
func (t *Tracer) EndDeliverySpan(span trace.Span, statusCode, latencyMs int, err string) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("fanout.latency_ms", latencyMs),
	)
	if err != "" {
		span.SetAttributes(attribute.String("fanout.error", err))
	}
	span.End()
}
