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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/cache"
	"github.com/poiesic/refinery/engine"
	"github.com/poiesic/refinery/extract"
	"github.com/poiesic/refinery/fetch"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Server ServerConfig      `yaml:"server"`
	Cache  CacheConfig       `yaml:"cache"`
	Fetch  FetchConfig       `yaml:"fetch"`
	Engine EngineConfig      `yaml:"engine"`
	OCR    extract.OCRConfig `yaml:"ocr"`
	Vision VisionConfig      `yaml:"vision"`
}

// ServerConfig holds HTTP and concurrency settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// FanOut is how many items of one batch run at once.
	FanOut int `yaml:"fan_out"`

	// Workers sizes the pool that runs decoding, OCR and transcription.
	Workers int `yaml:"workers"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path      string        `yaml:"path"`
	InMemory  bool          `yaml:"in_memory"`
	Namespace string        `yaml:"namespace"`
	TTL       time.Duration `yaml:"ttl"`

	// GCInterval is how often the value log is compacted. Zero disables it.
	GCInterval time.Duration `yaml:"gc_interval"`

	// Writers sizes the asynchronous writeback pool.
	Writers int `yaml:"writers"`
}

// FetchConfig holds download limits and object storage settings.
type FetchConfig struct {
	TempDir        string           `yaml:"temp_dir"`
	MaxBodyBytes   int64            `yaml:"max_body_bytes"`
	MaxUploadBytes int64            `yaml:"max_upload_bytes"`
	Timeout        time.Duration    `yaml:"timeout"`
	MaxAttempts    int              `yaml:"max_attempts"`
	RetryDelay     time.Duration    `yaml:"retry_delay"`
	S3             *fetch.S3Options `yaml:"s3"`
}

// EngineConfig holds speech recognition settings.
type EngineConfig struct {
	ModelPath string `yaml:"model_path"`
	Threads   int    `yaml:"threads"`
	Language  string `yaml:"language"`
}

// VisionConfig enables image descriptions through an OpenAI-compatible
// multimodal endpoint.
type VisionConfig struct {
	Enabled   bool `yaml:"enabled"`
	ai.Config `yaml:",inline"`
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "refinery", "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	f := fetch.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			FanOut:          1,
			Workers:         runtime.NumCPU(),
			ShutdownTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Path:       filepath.Join(".", "data", "cache"),
			Namespace:  cache.DefaultNamespace,
			TTL:        cache.DefaultTTL,
			GCInterval: 10 * time.Minute,
			Writers:    4,
		},
		Fetch: FetchConfig{
			MaxBodyBytes:   f.MaxBodyBytes,
			MaxUploadBytes: f.MaxUploadBytes,
			Timeout:        f.Timeout,
			MaxAttempts:    f.MaxAttempts,
			RetryDelay:     f.RetryDelay,
		},
		Engine: EngineConfig{
			Language: "en",
		},
		OCR:    extract.DefaultOCRConfig(),
		Vision: VisionConfig{Config: *ai.DefaultConfig()},
	}
}

// Load reads and parses a YAML config file. Missing fields keep their
// defaults. A leading ~ in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Cache.Path = expandTilde(cfg.Cache.Path)
	cfg.Fetch.TempDir = expandTilde(cfg.Fetch.TempDir)
	cfg.Engine.ModelPath = expandTilde(cfg.Engine.ModelPath)
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Server.FanOut < 1 {
		return fmt.Errorf("server.fan_out must be >= 1, got %d", c.Server.FanOut)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be >= 1, got %d", c.Server.Workers)
	}
	if !c.Cache.InMemory && c.Cache.Path == "" {
		return errors.New("cache.path must not be empty unless cache.in_memory is set")
	}
	if c.Cache.Namespace == "" || strings.Contains(c.Cache.Namespace, ":") {
		return fmt.Errorf("cache.namespace must be non-empty and contain no ':', got %q", c.Cache.Namespace)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	if c.Cache.Writers < 1 {
		return fmt.Errorf("cache.writers must be >= 1, got %d", c.Cache.Writers)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch.max_attempts must be >= 1, got %d", c.Fetch.MaxAttempts)
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be > 0")
	}
	if c.Vision.Enabled {
		if err := c.Vision.Config.Validate(); err != nil {
			return fmt.Errorf("vision: %w", err)
		}
	}
	return nil
}

// FetchSettings converts the fetch section for fetch.New.
func (c *Config) FetchSettings() fetch.Config {
	return fetch.Config{
		TempDir:        c.Fetch.TempDir,
		MaxBodyBytes:   c.Fetch.MaxBodyBytes,
		MaxUploadBytes: c.Fetch.MaxUploadBytes,
		Timeout:        c.Fetch.Timeout,
		MaxAttempts:    c.Fetch.MaxAttempts,
		RetryDelay:     c.Fetch.RetryDelay,
	}
}

// EngineParams converts the engine section, resolving the model path.
func (c *Config) EngineParams() engine.Params {
	p := engine.Params{
		ModelPath: c.Engine.ModelPath,
		Threads:   c.Engine.Threads,
		Language:  c.Engine.Language,
	}
	p.Normalize()
	return p
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
