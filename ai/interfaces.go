package ai

import (
	"context"
	"errors"
)

// ErrEmptyImage is returned when an image has no bytes to describe.
var ErrEmptyImage = errors.New("empty image")

// Describer produces a natural-language description of an image file.
// Implementations must be thread-safe for concurrent use.
type Describer interface {
	// Describe reads the image at path and returns the model's description.
	// An empty description is not an error.
	Describe(ctx context.Context, path string) (string, error)
}

// AIProvider owns the AI services used during extraction.
type AIProvider interface {
	// Describer returns the vision description service.
	Describer() Describer

	// Close releases resources held by the provider and its services.
	Close() error
}
