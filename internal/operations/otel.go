package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dwcli/pkg/contracts/domain"
)

// TracerName identifies spans emitted by the run manager.
const TracerName = "dwcli.operations"

// RunTracer instruments pipeline runs with OpenTelemetry spans: one
// span per run, with a child span per step.
type RunTracer struct {
	tracer trace.Tracer
}

// NewRunTracer creates a tracer bound to the globally registered
// tracer provider.
func NewRunTracer() *RunTracer {
	return &RunTracer{tracer: otel.Tracer(TracerName)}
}

// TraceRun starts the span covering one full pipeline run.
func (rt *RunTracer) TraceRun(ctx context.Context, runID string, steps int) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.steps", steps),
		),
	)
}

// TraceStep starts a child span for a single pipeline step.
func (rt *RunTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion closes out a step span with its outcome. The
// caller still ends the span.
func (rt *RunTracer) RecordStepCompletion(span trace.Span, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordRunCompletion closes out the run span with its terminal status.
func (rt *RunTracer) RecordRunCompletion(span trace.Span, status domain.RunStatus, duration time.Duration) {
	span.SetAttributes(
		attribute.String("run.status", string(status)),
		attribute.Float64("run.duration_seconds", duration.Seconds()),
	)
	if status == domain.RunStatusFailed {
		span.SetStatus(codes.Error, "run failed")
		return
	}
	span.SetStatus(codes.Ok, "run "+string(status))
}
