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

import "errors"

// Request validation errors
var (
	// ErrInvalidRequest indicates a batch or item request failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyFilename indicates the filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyURL indicates the file_url field is empty.
	ErrEmptyURL = errors.New("file_url cannot be empty")

	// ErrUnsupportedScheme indicates the file_url scheme is not http, https or s3.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")

	// ErrNoRequests indicates a batch without items.
	ErrNoRequests = errors.New("requests cannot be empty")
)
