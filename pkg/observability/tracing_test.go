package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracerSpans(t *testing.T) {
	tracer := NewTracer()
	ctx := context.Background()

	runCtx, runSpan := tracer.StartRunSpan(ctx, "run-1", "protein_uniprot", 10)
	require.NotNil(t, runSpan)
	defer runSpan.End()

	_, stageSpan := tracer.StartStageSpan(runCtx, 1, "local_id_conversion")
	require.NotNil(t, stageSpan)
	defer stageSpan.End()

	_, batchSpan := tracer.StartResolutionSpan(runCtx, 100)
	require.NotNil(t, batchSpan)
	defer batchSpan.End()

	_, overlapSpan := tracer.StartOverlapSpan(runCtx)
	require.NotNil(t, overlapSpan)
	defer overlapSpan.End()
}

func TestSpanHelper(t *testing.T) {
	tracer := NewTracer()
	_, span := tracer.StartStageSpan(context.Background(), 2, "fuzzy_string_match")
	defer span.End()

	helper := NewSpanHelper(span)
	helper.SetStageResult(7, 0.7)
	helper.SetError(errors.New("service unavailable"), "batch_failed", true)
	helper.SetSuccess()
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	// Without an active recorded span there is no trace ID to report.
	assert.Equal(t, "", GetTraceID(context.Background()))
}
