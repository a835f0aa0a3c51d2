package cache

import "errors"

var (
	// ErrCorrupt indicates a stored entry could not be decoded. Callers treat it as a miss.
	ErrCorrupt = errors.New("corrupt cache entry")

	// ErrStoreRequired is returned when no store is provided.
	ErrStoreRequired = errors.New("result store required")

	// ErrWriterClosed is reported for writes scheduled after the Writer closed.
	ErrWriterClosed = errors.New("cache writer closed")

	// ErrEmptyFilename indicates a lookup without a filename.
	ErrEmptyFilename = errors.New("filename cannot be empty")
)
