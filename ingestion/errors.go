package ingestion

import "errors"

var (
	// ErrCacheRequired is returned when a result cache is not provided.
	ErrCacheRequired = errors.New("result cache required")

	// ErrWriterRequired is returned when a cache writer is not provided.
	ErrWriterRequired = errors.New("cache writer required")

	// ErrFetcherRequired is returned when a fetcher is not provided.
	ErrFetcherRequired = errors.New("fetcher required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")
)
