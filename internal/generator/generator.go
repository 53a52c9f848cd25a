package generator

import "context"

// ContentGenerator turns a rendered prompt into narrative report text.
// Modeled as a black box: latency- and failure-prone, no retries here.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// ModelID identifies the backing model for report provenance fields.
	ModelID() string
}
