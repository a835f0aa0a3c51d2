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

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/refinery/storage"
)

const (
	// DefaultNamespace prefixes every key written by this service.
	DefaultNamespace = "refinery"

	// DefaultTTL is how long a result stays cached.
	DefaultTTL = 86400 * time.Second
)

// Key builds the store key for a filename.
func Key(namespace, filename string) string {
	return namespace + ":result:" + filename
}

// Cache stores extraction results keyed by filename.
type Cache struct {
	store     storage.ResultStore
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithNamespace sets the key namespace.
func WithNamespace(namespace string) Option {
	return func(c *Cache) {
		if namespace != "" {
			c.namespace = namespace
		}
	}
}

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache over store.
func New(store storage.ResultStore, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	c := &Cache{
		store:     store,
		namespace: DefaultNamespace,
		ttl:       DefaultTTL,
		logger:    slog.Default().With("component", "cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Namespace returns the configured key namespace.
func (c *Cache) Namespace() string {
	return c.namespace
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get looks up the cached result for filename.
//
// A missing entry returns ("", false, nil). An entry that cannot be decoded
// returns ("", false, err) with err matching ErrCorrupt, and a store failure
// returns ("", false, err). Both are misses to the caller.
func (c *Cache) Get(ctx context.Context, filename string) (string, bool, error) {
	if filename == "" {
		return "", false, ErrEmptyFilename
	}

	key := Key(c.namespace, filename)
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get %q: %w", key, err)
	}

	value, err := Decode(raw)
	if err != nil {
		return "", false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value for filename with the configured TTL.
func (c *Cache) Set(ctx context.Context, filename, value string) error {
	if filename == "" {
		return ErrEmptyFilename
	}

	raw, err := Encode(value)
	if err != nil {
		return err
	}
	key := Key(c.namespace, filename)
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	c.logger.Debug("cached result", "key", key, "bytes", len(raw))
	return nil
}

// Delete drops the entry for filename.
func (c *Cache) Delete(ctx context.Context, filename string) error {
	return c.store.Delete(ctx, Key(c.namespace, filename))
}

// Purge drops every entry in the namespace.
func (c *Cache) Purge(ctx context.Context) error {
	return c.store.DeletePrefix(ctx, c.namespace+":result:")
}
