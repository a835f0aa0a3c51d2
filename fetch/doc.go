// Package fetch retrieves item content into scoped temporary files.
//
// Supported sources are http(s) URLs, s3://bucket/key objects and multipart
// uploads. Failures map onto ErrNoContent, ErrNetwork and *HTTPStatusError.
// Transport errors and 5xx responses are retried with exponential backoff.
package fetch
