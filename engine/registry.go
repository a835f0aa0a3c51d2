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

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/refinery/audio"
	"golang.org/x/sync/singleflight"
)

// Engine transcribes 16 kHz mono audio. Implementations hold only immutable
// model state after construction and are safe for concurrent use.
type Engine interface {
	Transcribe(ctx context.Context, buf audio.Buffer) (string, error)
	Close() error
}

// Loader constructs an Engine. It may be slow and is called at most once per
// successful load.
type Loader func() (Engine, error)

type holder struct {
	engine Engine
}

// Registry lazily loads a single Engine on first use and shares it.
//
// Concurrent first callers share one load attempt. A failed attempt is
// returned to everyone waiting on it and is not remembered, so a later call
// tries again. Once loaded the engine is read without locking.
type Registry struct {
	loader Loader
	loaded atomic.Pointer[holder]
	group  singleflight.Group
	loads  atomic.Int64
	logger *slog.Logger

	// OnLoad, when set, observes every load attempt.
	OnLoad func(d time.Duration, err error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a custom logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a Registry that loads with loader.
func NewRegistry(loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader: loader,
		logger: slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the shared engine, loading it if needed.
func (r *Registry) Get() (Engine, error) {
	if h := r.loaded.Load(); h != nil {
		return h.engine, nil
	}

	v, err, _ := r.group.Do("engine", func() (any, error) {
		if h := r.loaded.Load(); h != nil {
			return h.engine, nil
		}

		start := time.Now()
		r.loads.Add(1)
		r.logger.Info("loading transcription engine")

		eng, err := r.loader()
		if err == nil && eng == nil {
			err = fmt.Errorf("loader returned no engine")
		}
		if r.OnLoad != nil {
			r.OnLoad(time.Since(start), err)
		}
		if err != nil {
			r.logger.Error("failed to load transcription engine", "err", err)
			return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
		}

		r.loaded.Store(&holder{engine: eng})
		r.logger.Info("transcription engine loaded", "elapsed", time.Since(start))
		return eng, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Engine), nil
}

// Loaded reports whether the engine has been loaded.
func (r *Registry) Loaded() bool {
	return r.loaded.Load() != nil
}

// LoadCount returns the number of load attempts so far.
func (r *Registry) LoadCount() int64 {
	return r.loads.Load()
}

// Transcribe loads the engine if needed and transcribes buf.
func (r *Registry) Transcribe(ctx context.Context, buf audio.Buffer) (string, error) {
	eng, err := r.Get()
	if err != nil {
		return "", err
	}
	text, err := eng.Transcribe(ctx, buf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEngine, err)
	}
	return text, nil
}

// Close closes the engine if it was loaded.
func (r *Registry) Close() error {
	h := r.loaded.Swap(nil)
	if h == nil {
		return nil
	}
	return h.engine.Close()
}
