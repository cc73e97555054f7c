// Package telemetry wraps use cases in a span and a metrics observation.
package telemetry

import (
	"context"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Observation is an in-flight use case.
type Observation struct {
	span    trace.Span
	rec     *metrics.Recorder
	op      string
	start   time.Time
	outcome string
}

// Start opens a span named op on tracer. Call End exactly once.
func Start(ctx context.Context, tracer trace.Tracer, rec *metrics.Recorder, op string, attrs ...attribute.KeyValue) (context.Context, *Observation) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	return ctx, &Observation{span: span, rec: rec, op: op, start: time.Now()}
}

// Annotate adds attributes to the span.
func (o *Observation) Annotate(attrs ...attribute.KeyValue) { o.span.SetAttributes(attrs...) }

// Outcome overrides the metric outcome label for a successful call.
func (o *Observation) Outcome(outcome string) { o.outcome = outcome }

// End closes the span and records the use case. A non-nil err marks both
// as failed.
func (o *Observation) End(err error) {
	outcome := o.outcome
	if outcome == "" {
		outcome = "success"
	}
	if err != nil {
		outcome = "error"
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	} else {
		o.span.SetStatus(codes.Ok, "")
	}
	o.span.End()
	o.rec.UseCase(o.op, outcome, time.Since(o.start))
}
