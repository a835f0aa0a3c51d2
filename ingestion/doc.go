// Package ingestion orchestrates batch extraction.
//
// Each item moves through cache lookup, fetch, dispatch, extraction and an
// asynchronous cache writeback, ending as either a result or an error
// message. Failures and panics are isolated per item; the batch status is
// 200, 207 or 422 depending on how many items succeeded.
package ingestion
