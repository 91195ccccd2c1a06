package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "kbpulse/internal/errors"
)

const (
	TracerName = "kbpulse.operations"
)

// PipelineTracer wraps the otel tracer used for pipeline spans
type PipelineTracer struct {
	tracer trace.Tracer
}

// NewPipelineTracer uses the global tracer provider
func NewPipelineTracer() *PipelineTracer {
	return &PipelineTracer{tracer: otel.Tracer(TracerName)}
}

// TraceRun creates a span for a whole pipeline run
func (pt *PipelineTracer) TraceRun(ctx context.Context, runID string, categories []string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.StringSlice("run.categories", categories),
		),
	)
}

// TraceStep creates a span for one step of one category
func (pt *PipelineTracer) TraceStep(ctx context.Context, stepID, category string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("step.id", stepID),
			attribute.String("category", category),
		),
	)
}

// EndSpan records err on the span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind := apperrors.KindOf(err); kind != "" {
			span.SetAttributes(attribute.String("error.kind", string(kind)))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
