package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a classified pipeline error.
type ErrorCode string

const (
	ErrTimeout          ErrorCode = "timeout"
	ErrContextCancelled ErrorCode = "context_cancelled"
	ErrBatchFailed      ErrorCode = "batch_failed"
	ErrParseError       ErrorCode = "parse_error"
	ErrFileNotFound     ErrorCode = "file_not_found"
	ErrMissingColumn    ErrorCode = "missing_column"
	ErrServiceError     ErrorCode = "service_error"
	ErrProcessingError  ErrorCode = "processing_error"
)

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code        ErrorCode
	Retryable   bool
	Description string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrTimeout: {
		Code:        ErrTimeout,
		Retryable:   true,
		Description: "Resolver batch exceeded its time limit",
	},
	ErrContextCancelled: {
		Code:        ErrContextCancelled,
		Retryable:   false,
		Description: "Run cancelled by caller",
	},
	ErrBatchFailed: {
		Code:        ErrBatchFailed,
		Retryable:   true,
		Description: "A resolver batch failed; its identifiers stay unresolved",
	},
	ErrParseError: {
		Code:        ErrParseError,
		Retryable:   false,
		Description: "Reference file or service response could not be parsed",
	},
	ErrFileNotFound: {
		Code:        ErrFileNotFound,
		Retryable:   false,
		Description: "Mapping table file does not exist",
	},
	ErrMissingColumn: {
		Code:        ErrMissingColumn,
		Retryable:   false,
		Description: "Named column is absent from the mapping table header",
	},
	ErrServiceError: {
		Code:        ErrServiceError,
		Retryable:   true,
		Description: "Historical resolution service returned an error",
	},
	ErrProcessingError: {
		Code:        ErrProcessingError,
		Retryable:   false,
		Description: "Unclassified processing failure",
	},
}

// PipelineError is a structured error for pipeline failures.
type PipelineError struct {
	Code     ErrorCode
	Stage    string
	Message  string
	Duration time.Duration
	Timeout  time.Duration
	Cause    error
}

func (e *PipelineError) Error() string {
	if e.Timeout > 0 && e.Duration > 0 {
		return fmt.Sprintf("%s: %s timed out after %s (limit: %s)",
			e.Code, e.Stage, e.Duration.Truncate(time.Millisecond), e.Timeout.Truncate(time.Millisecond))
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ClassifyError inspects an error and returns a *PipelineError with the
// appropriate code. Unknown errors get ErrProcessingError.
func ClassifyError(err error, stage string) *PipelineError {
	if err == nil {
		return nil
	}

	pe := &PipelineError{
		Stage: stage,
		Cause: err,
	}

	if errors.Is(err, context.DeadlineExceeded) {
		pe.Code = ErrTimeout
		pe.Message = "operation timed out"
		return pe
	}

	if errors.Is(err, context.Canceled) {
		pe.Code = ErrContextCancelled
		pe.Message = "operation cancelled"
		return pe
	}

	var existing *PipelineError
	if errors.As(err, &existing) {
		pe.Code = existing.Code
		pe.Message = existing.Message
		return pe
	}

	pe.Code = ErrProcessingError
	pe.Message = err.Error()
	return pe
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == ErrTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsErrorRetryable returns true if the error is likely transient and worth
// retrying, based on the ErrorCodeRegistry.
func IsErrorRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		if info, ok := ErrorCodeRegistry[pe.Code]; ok {
			return info.Retryable
		}
	}
	return false
}
