// Package ai provides the model transports, the credential-gated invoker,
// prompt templates, and reply extraction and validation.
package ai

import "context"

// Transport delivers a single prompt to a generative model.
// Implementations perform exactly one round trip per call and never retry.
type Transport interface {
	// Generate sends prompt and returns the model's text reply.
	// The context should carry timeout and cancellation signals.
	Generate(ctx context.Context, prompt string) (string, error)

	// HealthCheck verifies the model endpoint is reachable.
	HealthCheck(ctx context.Context) error
}

// Shape is the top-level JSON shape an operation expects.
type Shape int

const (
	// ShapeObject expects a single JSON object.
	ShapeObject Shape = iota

	// ShapeArray expects a JSON array of objects.
	ShapeArray
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	if s == ShapeArray {
		return "array"
	}
	return "object"
}
