// Package api exposes the extraction pipeline over HTTP.
//
// Routes:
//
//	POST /api/process/batch  JSON batch of {file_url, filename} items
//	POST /api/process        multipart upload of a single file
//	GET  /health             liveness
//	GET  /info               service name, version and backends
//	GET  /metrics            Prometheus exposition
//
// Batch responses use 200 when every item succeeded, 422 when every item
// failed and 207 otherwise. Malformed bodies get 400 with an errors map.
package api
