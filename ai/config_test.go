package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.VisionHost)
	assert.Equal(t, "llava", cfg.VisionModel)
	assert.Equal(t, DefaultPrompt, cfg.Prompt)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "http://localhost:11434/v1", cfg.VisionHost)
		assert.Equal(t, "llava", cfg.VisionModel)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://vision:8080/v1"),
			WithModel("gpt-4o-mini"),
			WithToken("secret"),
			WithPrompt("Caption this."),
			WithMaxTokens(64),
			WithTimeout(5*time.Second),
		)

		assert.Equal(t, "http://vision:8080/v1", cfg.VisionHost)
		assert.Equal(t, "gpt-4o-mini", cfg.VisionModel)
		assert.Equal(t, "secret", cfg.Token)
		assert.Equal(t, "Caption this.", cfg.Prompt)
		assert.Equal(t, 64, cfg.MaxTokens)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"adds v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"adds v1 after trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"leaves empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{VisionHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.VisionHost)
		})
	}

	t.Run("fills prompt and token", func(t *testing.T) {
		cfg := &Config{Prompt: "   "}
		cfg.Normalize()
		assert.Equal(t, DefaultPrompt, cfg.Prompt)
		assert.Equal(t, "none", cfg.Token)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid default", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("normalizes before validating", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.VisionHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing host", func(c *Config) { c.VisionHost = "" }, "VisionHost is required"},
		{"missing model", func(c *Config) { c.VisionModel = "" }, "VisionModel is required"},
		{"negative max tokens", func(c *Config) { c.MaxTokens = -1 }, "MaxTokens must not be negative"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "Timeout must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
