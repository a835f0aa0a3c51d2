// Package metrics exports Prometheus collectors for batch processing.
package metrics
