// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/refinery/tempfile"
)

var (
	// ErrNoContent indicates an empty body or an upload without a file part.
	ErrNoContent = errors.New("no content")

	// ErrNetwork indicates a transport failure before a response was read.
	ErrNetwork = errors.New("network error")

	// ErrHTTP matches every *HTTPStatusError.
	ErrHTTP = errors.New("http error")

	// ErrTooLarge indicates the content exceeded the configured size cap.
	ErrTooLarge = tempfile.ErrTooLarge

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrUnsupportedScheme indicates a URL scheme without a fetcher.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// HTTPStatusError reports a non-success status from the origin.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports ErrHTTP as a match.
func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTP
}

// Retryable reports whether a request with this status may succeed if repeated.
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// permanentError stops RetryWithBackoff early.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
