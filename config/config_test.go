package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/refinery/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.Server.FanOut)
	assert.Equal(t, "refinery", cfg.Cache.Namespace)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.False(t, cfg.Vision.Enabled)
	assert.Equal(t, "llava", cfg.Vision.VisionModel)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 127.0.0.1:9000
  fan_out: 4
cache:
  in_memory: true
  namespace: staging
  ttl: 1h
fetch:
  timeout: 15s
  s3:
    region: eu-west-1
    endpoint: http://minio:9000
    use_path_style: true
engine:
  model_path: /models/ggml-small.bin
  threads: 2
ocr:
  language: eng+vie
vision:
  enabled: true
  host: http://vision:8080
  model: gpt-4o-mini
  timeout: 20s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Server.FanOut)
	assert.True(t, cfg.Cache.InMemory)
	assert.Equal(t, "staging", cfg.Cache.Namespace)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	require.NotNil(t, cfg.Fetch.S3)
	assert.Equal(t, "eu-west-1", cfg.Fetch.S3.Region)
	assert.True(t, cfg.Fetch.S3.UsePathStyle)
	assert.Equal(t, "/models/ggml-small.bin", cfg.Engine.ModelPath)
	assert.Equal(t, "eng+vie", cfg.OCR.Language)
	assert.True(t, cfg.Vision.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.Vision.VisionModel)
	assert.Equal(t, 20*time.Second, cfg.Vision.Timeout)

	// untouched fields keep defaults
	assert.Equal(t, 4, cfg.Cache.Writers)
	assert.Equal(t, "tesseract", cfg.OCR.Binary)
	assert.Equal(t, int64(100<<20), cfg.Fetch.MaxBodyBytes)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://vision:8080/v1", cfg.Vision.VisionHost)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_ExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg, err := Load(writeConfig(t, "cache:\n  path: ~/refinery/cache\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "refinery", "cache"), cfg.Cache.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero fan out", func(c *Config) { c.Server.FanOut = 0 }, "server.fan_out"},
		{"zero workers", func(c *Config) { c.Server.Workers = 0 }, "server.workers"},
		{"no cache path", func(c *Config) { c.Cache.Path = "" }, "cache.path"},
		{"namespace with colon", func(c *Config) { c.Cache.Namespace = "a:b" }, "cache.namespace"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"zero writers", func(c *Config) { c.Cache.Writers = 0 }, "cache.writers"},
		{"zero attempts", func(c *Config) { c.Fetch.MaxAttempts = 0 }, "fetch.max_attempts"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch.timeout"},
		{"vision without model", func(c *Config) {
			c.Vision.Enabled = true
			c.Vision.VisionModel = ""
		}, "vision"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("in memory cache needs no path", func(t *testing.T) {
		cfg := Default()
		cfg.Cache.Path = ""
		cfg.Cache.InMemory = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("disabled vision is not validated", func(t *testing.T) {
		cfg := Default()
		cfg.Vision.VisionModel = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestFetchSettings(t *testing.T) {
	cfg := Default()
	cfg.Fetch.TempDir = "/scratch"
	cfg.Fetch.MaxAttempts = 5

	f := cfg.FetchSettings()
	assert.Equal(t, "/scratch", f.TempDir)
	assert.Equal(t, 5, f.MaxAttempts)
	assert.Equal(t, cfg.Fetch.RetryDelay, f.RetryDelay)
}

func TestEngineParams(t *testing.T) {
	t.Setenv(engine.ModelPathEnv, "/env/model.bin")

	cfg := Default()
	p := cfg.EngineParams()
	assert.Equal(t, "/env/model.bin", p.ModelPath)
	assert.Equal(t, "en", p.Language)
	assert.Positive(t, p.Threads)

	cfg.Engine.ModelPath = "/configured.bin"
	assert.Equal(t, "/configured.bin", cfg.EngineParams().ModelPath)
}
