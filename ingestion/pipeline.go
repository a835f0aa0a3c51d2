package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/extract"
	"github.com/poiesic/refinery/offload"
	"github.com/poiesic/refinery/tempfile"
	"golang.org/x/sync/errgroup"
)

// ResultCache is the read side of the result cache. *cache.Cache satisfies it.
type ResultCache interface {
	Get(ctx context.Context, filename string) (string, bool, error)
}

// Writeback stores results without blocking the caller. *cache.Writer
// satisfies it.
type Writeback interface {
	SetAsync(filename, value string)
}

// Fetcher materializes a remote item. *fetch.Fetcher satisfies it.
type Fetcher interface {
	FromURL(ctx context.Context, rawURL, filename string) (*tempfile.Resource, error)
}

// Extractor runs a capability against a local file. *extract.Extractor
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, c core.Capability, path string) (json.RawMessage, error)
}

// Pipeline drives batch items through cache lookup, fetch, dispatch,
// extraction and cache writeback.
type Pipeline struct {
	cache     ResultCache
	writer    Writeback
	fetcher   Fetcher
	extractor Extractor
	fanOut    int
	monitor   Monitor
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithFanOut sets how many items of one batch are processed concurrently.
// Default is 1, which processes items in request order.
func WithFanOut(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.fanOut = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor installs hooks observing every batch.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = NoopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// NewPipeline creates a new batch pipeline.
func NewPipeline(
	cache ResultCache,
	writer Writeback,
	fetcher Fetcher,
	extractor Extractor,
	opts ...Option,
) (*Pipeline, error) {
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	p := &Pipeline{
		cache:     cache,
		writer:    writer,
		fetcher:   fetcher,
		extractor: extractor,
		fanOut:    1,
		monitor:   NoopMonitor{},
		logger:    slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ProcessBatch runs every request to a terminal outcome. Results[i]
// always corresponds to reqs[i]; one item's failure or panic never affects
// another.
func (p *Pipeline) ProcessBatch(ctx context.Context, reqs []core.BatchItemRequest) *Outcome {
	p.monitor.BatchStarted(len(reqs))
	results := make([]core.BatchItemResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(p.fanOut)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = p.processItem(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	out := NewOutcome(results)
	p.monitor.BatchCompleted(out.Status(), out.Succeeded, out.Failed)
	p.logger.Info("batch complete", "items", len(reqs), "succeeded", out.Succeeded, "failed", out.Failed)
	return out
}

// ProcessUpload extracts an uploaded file and writes the result back to the
// cache. Uploaded bytes are authoritative, so the cache is not consulted.
// The resource is released before returning.
func (p *Pipeline) ProcessUpload(ctx context.Context, res *tempfile.Resource, filename string) core.BatchItemResult {
	defer res.Release()

	p.monitor.BatchStarted(1)
	result := p.guard(filename, func(it *item) core.BatchItemResult {
		return p.extractAndStore(ctx, it, res)
	})
	out := NewOutcome([]core.BatchItemResult{result})
	p.monitor.BatchCompleted(out.Status(), out.Succeeded, out.Failed)
	return result
}

// item carries per-item state for monitoring.
type item struct {
	filename   string
	capability core.Capability
}

// guard runs fn with panic isolation and reports the terminal outcome.
func (p *Pipeline) guard(filename string, fn func(it *item) core.BatchItemResult) (result core.BatchItemResult) {
	it := &item{filename: filename}
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			p.logger.Error("item panicked", "filename", filename, "panic", r, "stack", string(stack))
			result = core.Failed(filename, RenderError(&offload.PanicError{Value: r, Stack: stack}))
		}
		p.monitor.ItemCompleted(it.capability, result.OK())
	}()
	return fn(it)
}

func (p *Pipeline) processItem(ctx context.Context, req core.BatchItemRequest) core.BatchItemResult {
	return p.guard(req.Filename, func(it *item) core.BatchItemResult {
		if err := core.ValidateBatchItemRequest(&req); err != nil {
			return core.Failed(req.Filename, RenderError(err))
		}

		if cached, ok := p.lookup(ctx, req.Filename); ok {
			return core.Succeeded(req.Filename, cached)
		}

		start := time.Now()
		res, err := p.fetcher.FromURL(ctx, req.FileURL, req.Filename)
		p.monitor.StageCompleted(StageFetch, time.Since(start))
		if err != nil {
			p.logger.Warn("fetch failed", "filename", req.Filename, "err", err)
			return core.Failed(req.Filename, RenderError(err))
		}
		defer res.Release()

		return p.extractAndStore(ctx, it, res)
	})
}

// lookup returns a cached result. Store errors and corrupt entries are
// logged and treated as misses.
func (p *Pipeline) lookup(ctx context.Context, filename string) (json.RawMessage, bool) {
	start := time.Now()
	cached, hit, err := p.cache.Get(ctx, filename)
	p.monitor.StageCompleted(StageCacheLookup, time.Since(start))

	switch {
	case err != nil:
		p.monitor.CacheLookup(CacheError)
		p.logger.Warn("cache lookup failed", "filename", filename, "err", err)
		return nil, false
	case !hit:
		p.monitor.CacheLookup(CacheMiss)
		return nil, false
	case !json.Valid([]byte(cached)):
		p.monitor.CacheLookup(CacheError)
		p.logger.Warn("cached result is not valid JSON", "filename", filename)
		return nil, false
	}

	p.monitor.CacheLookup(CacheHit)
	p.logger.Debug("cache hit", "filename", filename)
	return json.RawMessage(cached), true
}

func (p *Pipeline) extractAndStore(ctx context.Context, it *item, res *tempfile.Resource) core.BatchItemResult {
	capability, err := extract.Dispatch(res.Ext())
	if err != nil {
		return core.Failed(it.filename, RenderError(err))
	}
	it.capability = capability

	start := time.Now()
	raw, err := p.extractor.Extract(ctx, capability, res.Path())
	p.monitor.StageCompleted(StageExtract, time.Since(start))
	if err != nil {
		p.logger.Warn("extraction failed", "filename", it.filename, "capability", capability, "err", err)
		return core.Failed(it.filename, RenderError(err))
	}

	p.writer.SetAsync(it.filename, string(raw))
	return core.Succeeded(it.filename, raw)
}

// RenderError converts an item failure into the client-facing message.
// Unsupported types keep their own message and panics stay generic.
func RenderError(err error) string {
	var typeErr *extract.UnsupportedTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Error()
	}
	if errors.Is(err, offload.ErrPanicked) {
		return "Processing failed: processing failed"
	}
	return fmt.Sprintf("Processing failed: %v", err)
}
