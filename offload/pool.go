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

package offload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// Pool runs blocking, CPU-heavy work on a bounded set of worker goroutines
// so request handling goroutines only wait on a channel.
type Pool struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a pool with size workers. A size below 1 defaults to
// runtime.NumCPU().
func NewPool(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		size = runtime.NumCPU()
	}

	p := &Pool{
		logger: slog.Default().With("component", "offload"),
	}
	for _, opt := range opts {
		opt(p)
	}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(v any) {
		p.logger.Error("worker panic escaped task", "panic", v)
	}))
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Cap returns the number of workers.
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release stops the pool. Tasks already running finish; new submissions fail
// with ErrPoolClosed.
func (p *Pool) Release() {
	p.pool.Release()
}

const (
	statePending int32 = iota
	stateRunning
	stateAbandoned
)

type outcome[T any] struct {
	value T
	err   error
}

// Run executes fn on the pool and waits for its result.
//
// A panic inside fn is recovered and returned as a *PanicError. If ctx ends
// before a worker picks the task up, the task is skipped and ErrCancelled is
// returned. Once fn has started Run waits for it to finish.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	var state atomic.Int32
	started := make(chan struct{})
	done := make(chan outcome[T], 1)

	task := func() {
		if !state.CompareAndSwap(statePending, stateRunning) {
			return
		}
		close(started)
		done <- execute(p.logger, fn)
	}

	// Submit blocks while every worker is busy, so it runs off the caller's
	// goroutine to keep the wait cancellable.
	submitErr := make(chan error, 1)
	go func() {
		submitErr <- p.pool.Submit(task)
	}()

	for {
		select {
		case err := <-submitErr:
			if err != nil {
				if errors.Is(err, ants.ErrPoolClosed) {
					return zero, ErrPoolClosed
				}
				return zero, fmt.Errorf("failed to submit task: %w", err)
			}
			submitErr = nil
		case <-started:
			out := <-done
			return out.value, out.err
		case <-ctx.Done():
			if state.CompareAndSwap(statePending, stateAbandoned) {
				return zero, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
			}
			out := <-done
			return out.value, out.err
		}
	}
}

func execute[T any](logger *slog.Logger, fn func() (T, error)) (out outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("task panicked", "panic", r, "stack", string(stack))
			out = outcome[T]{err: &PanicError{Value: r, Stack: stack}}
		}
	}()
	v, err := fn()
	return outcome[T]{value: v, err: err}
}
