package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for mapping operations.
const TracerName = "biomapper"

// Span attribute keys
const (
	AttrRunID      = "run_id"
	AttrStage      = "stage"
	AttrAction     = "action"
	AttrOntology   = "ontology"
	AttrInputCount = "input_count"
	AttrMatched    = "matched_count"
	AttrCoverage   = "coverage"
	AttrBatchSize  = "batch_size"
	AttrErrorType  = "error_type"
	AttrRetryable  = "retryable"
)

// Span names
const (
	SpanExecuteStrategy = "biomapper.execute_strategy"
	SpanResolutionBatch = "biomapper.resolution_batch"
	SpanOverlapAnalysis = "biomapper.overlap_analysis"
)

// Tracer provides distributed tracing for mapping operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new mapping tracer.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartRunSpan starts a root span for a strategy execution.
func (t *Tracer) StartRunSpan(ctx context.Context, runID, ontology string, inputCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanExecuteStrategy,
		trace.WithAttributes(
			attribute.String(AttrRunID, runID),
			attribute.String(AttrOntology, ontology),
			attribute.Int(AttrInputCount, inputCount),
		),
	)
}

// StartStageSpan starts a span for one pipeline stage.
func (t *Tracer) StartStageSpan(ctx context.Context, stage int, action string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("biomapper.stage.%s", action),
		trace.WithAttributes(
			attribute.Int(AttrStage, stage),
			attribute.String(AttrAction, action),
		),
	)
}

// StartResolutionSpan starts a span for a historical resolution batch.
func (t *Tracer) StartResolutionSpan(ctx context.Context, batchSize int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanResolutionBatch,
		trace.WithAttributes(
			attribute.Int(AttrBatchSize, batchSize),
		),
	)
}

// StartOverlapSpan starts a span for overlap analysis.
func (t *Tracer) StartOverlapSpan(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanOverlapAnalysis)
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetStageResult sets stage outcome attributes.
func (h *SpanHelper) SetStageResult(matched int, coverage float64) {
	h.span.SetAttributes(
		attribute.Int(AttrMatched, matched),
		attribute.Float64(AttrCoverage, coverage),
	)
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, errorType string, retryable bool) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(
		attribute.String(AttrErrorType, errorType),
		attribute.Bool(AttrRetryable, retryable),
	)
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
