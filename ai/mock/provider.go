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

package mock

import "github.com/poiesic/refinery/ai"

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	describer *MockDescriber
}

// NewMockProvider creates a new mock provider with a default mock describer.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockDescriber() to access the concrete type for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{describer: NewMockDescriber()}
}

// NewMockProviderWithDescriber creates a mock provider around a custom describer.
func NewMockProviderWithDescriber(describer *MockDescriber) ai.AIProvider {
	return &MockProvider{describer: describer}
}

// Describer returns the mock describer.
func (p *MockProvider) Describer() ai.Describer {
	return p.describer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockDescriber returns the underlying mock describer for test assertions.
func (p *MockProvider) GetMockDescriber() *MockDescriber {
	return p.describer
}
