package mock

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/poiesic/refinery/ai"
)

// MockDescriber is a test double for ai.Describer.
// It allows custom behavior injection via function fields.
type MockDescriber struct {
	// DescribeFunc is called by Describe if set.
	// If nil, returns a description naming the file.
	DescribeFunc func(ctx context.Context, path string) (string, error)

	callCount atomic.Int64
}

var _ ai.Describer = (*MockDescriber)(nil)

// NewMockDescriber creates a mock describer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockDescriber() *MockDescriber {
	return &MockDescriber{}
}

// WithDescribeFunc sets custom behavior and returns the mock for chaining.
func (m *MockDescriber) WithDescribeFunc(fn func(ctx context.Context, path string) (string, error)) *MockDescriber {
	m.DescribeFunc = fn
	return m
}

// Describe returns a deterministic description of path.
func (m *MockDescriber) Describe(ctx context.Context, path string) (string, error) {
	m.callCount.Add(1)

	if m.DescribeFunc != nil {
		return m.DescribeFunc(ctx, path)
	}
	return "an image (" + filepath.Base(path) + ")", nil
}

// CallCount returns the number of times Describe was called.
func (m *MockDescriber) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockDescriber) Reset() {
	m.callCount.Store(0)
	m.DescribeFunc = nil
}
