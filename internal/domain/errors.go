// Package domain contains the core domain models and types.
package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every pipeline error wraps exactly one of these.
var (
	// ErrConfiguration indicates the model credential is missing or malformed.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransport indicates the model call failed on the network or at the provider.
	ErrTransport = errors.New("transport error")

	// ErrExtraction indicates no parseable JSON was found in the model reply.
	ErrExtraction = errors.New("extraction error")

	// ErrSchema indicates the parsed reply is missing required fields.
	ErrSchema = errors.New("schema error")
)

// Transport sub-kinds. Each one matches ErrTransport under errors.Is.
var (
	// ErrAITimeout indicates the model did not respond in time.
	ErrAITimeout = fmt.Errorf("%w: model timeout", ErrTransport)

	// ErrAIUnavailable indicates the provider returned a server-side failure.
	ErrAIUnavailable = fmt.Errorf("%w: model unavailable", ErrTransport)

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = fmt.Errorf("%w: rate limit exceeded", ErrTransport)

	// ErrAuthentication indicates the provider rejected the credential.
	ErrAuthentication = fmt.Errorf("%w: authentication failed", ErrTransport)
)

var (
	// ErrInvalidConfig indicates structurally invalid process configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownOperation indicates no descriptor is registered for an operation.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrEmptyMessage indicates a chat message is empty or whitespace only.
	ErrEmptyMessage = errors.New("chat message is empty")
)

// PredictionError wraps an error with additional context.
type PredictionError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *PredictionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *PredictionError) Unwrap() error {
	return e.Err
}

// WrapError creates a new PredictionError with context.
func WrapError(op string, err error, retryable bool) *PredictionError {
	return &PredictionError{
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// Kind returns the taxonomy label of err, used for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrSchema):
		return "schema"
	default:
		return "unknown"
	}
}
