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
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const writebackTimeout = 30 * time.Second

// Writer performs fire-and-forget cache writes. Failures are logged and
// never reach the caller.
type Writer struct {
	cache   *Cache
	pool    *ants.Pool
	pending sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	logger  *slog.Logger

	// OnResult, when set, observes the outcome of each write.
	OnResult func(filename string, err error)
}

// NewWriter creates a Writer with size workers. Submissions beyond the
// pool's capacity are dropped with a warning.
func NewWriter(cache *Cache, size int) (*Writer, error) {
	if cache == nil {
		return nil, ErrStoreRequired
	}
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Writer{
		cache:  cache,
		pool:   pool,
		logger: slog.Default().With("component", "cache-writer"),
	}, nil
}

// SetAsync schedules a write of value for filename and returns immediately.
// Writes scheduled after Close are dropped.
func (w *Writer) SetAsync(filename, value string) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		w.logger.Warn("cache writeback dropped", "filename", filename, "err", ErrWriterClosed)
		w.report(filename, ErrWriterClosed)
		return
	}
	w.pending.Add(1)
	w.mu.RUnlock()

	err := w.pool.Submit(func() {
		defer w.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writebackTimeout)
		defer cancel()

		err := w.cache.Set(ctx, filename, value)
		if err != nil {
			w.logger.Error("cache writeback failed", "filename", filename, "err", err)
		}
		w.report(filename, err)
	})
	if err != nil {
		w.pending.Done()
		w.logger.Warn("cache writeback dropped", "filename", filename, "err", err)
		w.report(filename, err)
	}
}

func (w *Writer) report(filename string, err error) {
	if w.OnResult != nil {
		w.OnResult(filename, err)
	}
}

// Wait blocks until every scheduled write has finished.
func (w *Writer) Wait() {
	w.pending.Wait()
}

// Close stops accepting writes, waits for pending ones and releases the pool.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.Wait()
	w.pool.Release()
}
