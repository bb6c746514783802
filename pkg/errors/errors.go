// Package errors provides common domain error types for biomapper.
//
// Two families of errors exist in the pipeline:
//
//   - Configuration errors: fatal, raised before any identifier is
//     processed. They name the offending parameter, column, or path and
//     propagate to the caller unmodified.
//   - Item-level failures: non-fatal. A failed batch or an unresolvable
//     identifier is converted into data (unmatched membership, provenance,
//     statistics) and the run continues.
//
// Usage:
//
//	import bmerrors "github.com/arpanauts/biomapper/pkg/errors"
//
//	// Return a configuration error
//	return nil, bmerrors.NewConfigError("source_column", "column %q not found", col)
//
//	// Check for configuration errors
//	if bmerrors.IsConfig(err) {
//	    // fail fast
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrConfig is the sentinel every ConfigError unwraps to.
var ErrConfig = errors.New("configuration error")

// IsConfig reports whether any error in err's chain is ErrConfig.
func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

// ConfigError is a fatal configuration error. It always names the parameter
// (or column, or path) that caused it so the caller can fix the strategy
// file without reading logs.
type ConfigError struct {
	// Parameter is the offending parameter, column, or path name.
	Parameter string

	// Message describes what is wrong with the parameter.
	Message string
}

func (e *ConfigError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Parameter, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// NewConfigError creates a ConfigError for the named parameter.
func NewConfigError(parameter, format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Message:   fmt.Sprintf(format, args...),
	}
}
