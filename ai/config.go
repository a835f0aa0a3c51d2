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

package ai

import (
	"errors"
	"strings"
	"time"
)

// DefaultPrompt asks the vision model for a description that complements OCR.
const DefaultPrompt = "Describe this image in detail. Mention the main subjects, " +
	"any visible text, and the overall context. Answer in plain prose."

// Config holds configuration for the vision description service.
type Config struct {
	// VisionHost is the base URL for the vision model API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	VisionHost string `yaml:"host"`

	// VisionModel is the multimodal model identifier.
	// Example: "llava", "gpt-4o-mini"
	VisionModel string `yaml:"model"`

	// Token is the API token. Local servers accept any value.
	Token string `yaml:"token"`

	// Prompt is sent alongside every image.
	Prompt string `yaml:"prompt"`

	// MaxTokens caps the description length. Zero leaves it to the server.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single describe call.
	Timeout time.Duration `yaml:"timeout"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the vision service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
	}
}

// WithModel sets the vision model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithPrompt replaces the description prompt.
func WithPrompt(prompt string) ConfigOption {
	return func(c *Config) {
		c.Prompt = prompt
	}
}

// WithMaxTokens caps the generated description.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithTimeout bounds each describe call.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config pointed at a local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		VisionHost:  "http://localhost:11434/v1",
		VisionModel: "llava",
		Token:       "none",
		Prompt:      DefaultPrompt,
		MaxTokens:   512,
		Timeout:     60 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithModel("llava:13b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.VisionHost != "" && !strings.HasSuffix(c.VisionHost, "/v1") {
		c.VisionHost = strings.TrimSuffix(c.VisionHost, "/")
		c.VisionHost = c.VisionHost + "/v1"
	}
	if strings.TrimSpace(c.Prompt) == "" {
		c.Prompt = DefaultPrompt
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.VisionHost == "" {
		return errors.New("ai config: VisionHost is required")
	}
	if c.VisionModel == "" {
		return errors.New("ai config: VisionModel is required")
	}
	if c.MaxTokens < 0 {
		return errors.New("ai config: MaxTokens must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New("ai config: Timeout must not be negative")
	}
	return nil
}
