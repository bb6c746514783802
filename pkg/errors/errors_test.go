package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigErrorNamesParameter(t *testing.T) {
	err := NewConfigError("source_column", "column %q not found, available: %v", "uniprot", []string{"id", "name"})

	assert.Contains(t, err.Error(), "source_column")
	assert.Contains(t, err.Error(), `"uniprot"`)
	assert.True(t, IsConfig(err))
}

func TestConfigErrorWrapping(t *testing.T) {
	err := fmt.Errorf("loading mapping table: %w", NewConfigError("file_path", "no such file"))
	assert.True(t, IsConfig(err))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"cancelled", context.Canceled, ErrContextCancelled},
		{"wrapped deadline", fmt.Errorf("batch 3: %w", context.DeadlineExceeded), ErrTimeout},
		{"unknown", fmt.Errorf("boom"), ErrProcessingError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := ClassifyError(tt.err, "historical_resolution")
			require.NotNil(t, pe)
			assert.Equal(t, tt.want, pe.Code)
			assert.Equal(t, "historical_resolution", pe.Stage)
		})
	}
}

func TestClassifyErrorNil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil, "any"))
}

func TestClassifyErrorPreservesExistingCode(t *testing.T) {
	inner := &PipelineError{Code: ErrBatchFailed, Message: "service 503"}
	pe := ClassifyError(fmt.Errorf("stage 3: %w", inner), "historical_resolution")
	assert.Equal(t, ErrBatchFailed, pe.Code)
}

func TestPipelineErrorTimeoutMessage(t *testing.T) {
	pe := &PipelineError{
		Code:     ErrTimeout,
		Stage:    "historical_resolution",
		Duration: 31 * time.Second,
		Timeout:  30 * time.Second,
	}
	assert.Contains(t, pe.Error(), "timed out after")
}

func TestIsErrorRetryable(t *testing.T) {
	assert.True(t, IsErrorRetryable(&PipelineError{Code: ErrTimeout}))
	assert.True(t, IsErrorRetryable(&PipelineError{Code: ErrBatchFailed}))
	assert.False(t, IsErrorRetryable(&PipelineError{Code: ErrMissingColumn}))
	assert.False(t, IsErrorRetryable(fmt.Errorf("plain")))
}
