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

package core

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ValidateBatchItemRequest validates a single batch item.
//
// Validation rules:
//   - Filename must not be blank
//   - FileURL must not be blank
//   - FileURL must parse and use the http, https or s3 scheme
func ValidateBatchItemRequest(req *BatchItemRequest) error {
	if req == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidRequest)
	}

	if strings.TrimSpace(req.Filename) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyFilename)
	}

	if strings.TrimSpace(req.FileURL) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyURL)
	}

	u, err := url.Parse(req.FileURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if !IsSupportedScheme(u.Scheme) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrUnsupportedScheme, u.Scheme)
	}

	return nil
}

// ValidateBatchRequest validates every item of a batch and returns a map from
// field path to message. An empty map means the batch is valid.
func ValidateBatchRequest(req *BatchRequest) map[string]string {
	problems := make(map[string]string)
	if req == nil || len(req.Requests) == 0 {
		problems["requests"] = ErrNoRequests.Error()
		return problems
	}

	for i := range req.Requests {
		if err := ValidateBatchItemRequest(&req.Requests[i]); err != nil {
			problems[fmt.Sprintf("requests[%d]", i)] = err.Error()
		}
	}
	return problems
}

// IsSupportedScheme reports whether a URL scheme can be fetched.
func IsSupportedScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https", "s3":
		return true
	default:
		return false
	}
}

// StatusForCounts maps per-item tallies to the batch HTTP status:
// 200 when nothing failed, 422 when nothing succeeded, 207 otherwise.
func StatusForCounts(succeeded, failed int) int {
	switch {
	case failed == 0:
		return http.StatusOK
	case succeeded == 0:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusMultiStatus
	}
}

// BatchMessage renders the summary line carried in every batch response.
func BatchMessage(succeeded, failed int) string {
	return fmt.Sprintf("Batch complete. Success: %d, Failed: %d", succeeded, failed)
}
