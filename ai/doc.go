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

// Package ai provides abstractions for the AI services used during extraction.
//
// Images are described by a multimodal model after OCR. The package defines
// the Describer interface and its configuration; callers depend on the
// interface rather than a concrete client.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewDescriber) return
// INTERFACE types. Test utility constructors (mock.NewMockDescriber) return
// CONCRETE types so tests can inject behavior and assert call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithModel("llava"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	desc, err := provider.Describer().Describe(ctx, path)
package ai
