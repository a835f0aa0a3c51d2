package offload

import (
	"errors"
	"fmt"
)

var (
	// ErrPanicked matches any *PanicError.
	ErrPanicked = errors.New("task panicked")

	// ErrCancelled indicates the caller stopped waiting before the task started.
	ErrCancelled = errors.New("task cancelled")

	// ErrPoolClosed indicates the pool was released.
	ErrPoolClosed = errors.New("worker pool closed")
)

// PanicError carries a recovered panic. Its message is generic;
// Value and Stack are for logs only.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return "processing failed"
}

// Is reports ErrPanicked as a match.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanicked
}

// Detail renders the recovered value for logging.
func (e *PanicError) Detail() string {
	return fmt.Sprint(e.Value)
}
