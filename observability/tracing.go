package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tandemhq/tandem"

// Tracer provides OpenTelemetry tracing for Tandem.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tandem tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartWebhookSpan starts a span covering one webhook's processing.
func (t *Tracer) StartWebhookSpan(ctx context.Context, platform, eventType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tandem.webhook",
		trace.WithAttributes(
			attribute.String("tandem.platform", platform),
			attribute.String("tandem.event_type", eventType),
		),
	)
}

// StartDispatchSpan starts a span for one rule action dispatch.
func (t *Tracer) StartDispatchSpan(ctx context.Context, ruleID, integrationID, action string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tandem.dispatch",
		trace.WithAttributes(
			attribute.String("tandem.rule_id", ruleID),
			attribute.String("tandem.integration_id", integrationID),
			attribute.String("tandem.action", action),
		),
	)
}

// EndDispatchSpan ends a dispatch span with result attributes.
func (t *Tracer) EndDispatchSpan(span trace.Span, outcome string, attempts, latencyMs int, err string) {
	span.SetAttributes(
		attribute.String("tandem.outcome", outcome),
		attribute.Int("tandem.attempts", attempts),
		attribute.Int("tandem.latency_ms", latencyMs),
	)
	if err != "" {
		span.SetAttributes(attribute.String("tandem.error", err))
	}
	span.End()
}
