// Package telemetry records acquisition metrics and spans through the
// OpenTelemetry API. Without configured providers it uses the global ones,
// which are no-ops unless the embedding program installs an SDK.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/cperrin88/inkwell"

// Outcomes recorded on the acquisitions counter.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
)

// Recorder owns the inkwell instruments.
type Recorder struct {
	tracer       trace.Tracer
	acquisitions metric.Int64Counter
	duration     metric.Float64Histogram
	queued       metric.Int64UpDownCounter
}

// New creates the instruments. Nil providers fall back to the globals.
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	meter := mp.Meter(instrumentationName)

	r := &Recorder{tracer: tp.Tracer(instrumentationName)}
	var err error
	r.acquisitions, err = meter.Int64Counter("inkwell.acquisitions",
		metric.WithDescription("Font acquisitions by outcome"),
		metric.WithUnit("{acquisition}"),
	)
	if err != nil {
		return nil, err
	}
	r.duration, err = meter.Float64Histogram("inkwell.acquisition.duration",
		metric.WithDescription("Time from request to completion of an acquisition"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}
	r.queued, err = meter.Int64UpDownCounter("inkwell.queue.outstanding",
		metric.WithDescription("Acquisitions waiting or running"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Queued adjusts the outstanding operations gauge by delta.
func (r *Recorder) Queued(ctx context.Context, delta int64) {
	r.queued.Add(ctx, delta)
}

// Tracker follows one acquisition.
type Tracker struct {
	r     *Recorder
	ctx   context.Context
	span  trace.Span
	start time.Time
	attrs []attribute.KeyValue
}

// Track starts a span for the acquisition of key.
func (r *Recorder) Track(ctx context.Context, opID, family, variant string) *Tracker {
	attrs := []attribute.KeyValue{
		attribute.String("font.family", family),
		attribute.String("font.variant", variant),
	}
	ctx, span := r.tracer.Start(ctx, "inkwell.acquire",
		trace.WithAttributes(append(attrs, attribute.String("inkwell.operation.id", opID))...))
	return &Tracker{r: r, ctx: ctx, span: span, start: time.Now(), attrs: attrs}
}

// Context returns the context carrying the acquisition span.
func (t *Tracker) Context() context.Context { return t.ctx }

// Phase records a phase transition on the span.
func (t *Tracker) Phase(name, msg string) {
	t.span.AddEvent(name, trace.WithAttributes(attribute.String("message", msg)))
}

// End records the outcome and closes the span.
func (t *Tracker) End(outcome string, err error) {
	attrs := append(t.attrs, attribute.String("outcome", outcome))
	t.r.acquisitions.Add(t.ctx, 1, metric.WithAttributes(attrs...))
	t.r.duration.Record(t.ctx, time.Since(t.start).Seconds(), metric.WithAttributes(attrs...))

	if err != nil && outcome == OutcomeFailure {
		t.span.RecordError(err)
		t.span.SetStatus(codes.Error, err.Error())
	}
	t.span.SetAttributes(attribute.String("outcome", outcome))
	t.span.End()
}
