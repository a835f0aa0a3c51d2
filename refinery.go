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

// Package refinery assembles the extraction service: result cache, fetcher,
// extractors and the batch pipeline, all configured from one config.Config.
package refinery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/ai/openai"
	"github.com/poiesic/refinery/cache"
	"github.com/poiesic/refinery/config"
	"github.com/poiesic/refinery/engine"
	"github.com/poiesic/refinery/extract"
	"github.com/poiesic/refinery/fetch"
	"github.com/poiesic/refinery/ingestion"
	"github.com/poiesic/refinery/metrics"
	"github.com/poiesic/refinery/offload"
	"github.com/poiesic/refinery/storage"
	"github.com/poiesic/refinery/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Name is reported by the info endpoint.
const Name = "refinery"

// Version is overridden at link time.
var Version = "dev"

// Service owns every long-lived component of the extraction service.
type Service struct {
	cfg      *config.Config
	backend  *badger.Backend
	store    storage.ResultStore
	cache    *cache.Cache
	writer   *cache.Writer
	pool     *offload.Pool
	registry *engine.Registry
	provider ai.AIProvider
	fetcher  *fetch.Fetcher
	pipeline *ingestion.Pipeline
	metrics  *metrics.Collector
	promReg  *prometheus.Registry
	stopGC   context.CancelFunc
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	loader    engine.Loader
	ocr       extract.OCR
	describer ai.Describer
	s3        fetch.ObjectGetter
	monitors  []ingestion.Monitor
	promReg   *prometheus.Registry
}

// WithEngineLoader replaces the speech engine loader built from the config.
func WithEngineLoader(loader engine.Loader) ServiceOption {
	return func(o *serviceOptions) {
		o.loader = loader
	}
}

// WithOCR replaces the OCR engine built from the config.
func WithOCR(ocr extract.OCR) ServiceOption {
	return func(o *serviceOptions) {
		o.ocr = ocr
	}
}

// WithDescriber replaces the vision describer built from the config.
func WithDescriber(d ai.Describer) ServiceOption {
	return func(o *serviceOptions) {
		o.describer = d
	}
}

// WithS3Client replaces the S3 client built from the config.
func WithS3Client(getter fetch.ObjectGetter) ServiceOption {
	return func(o *serviceOptions) {
		o.s3 = getter
	}
}

// WithMonitor adds a batch monitor alongside the metrics collector.
func WithMonitor(m ingestion.Monitor) ServiceOption {
	return func(o *serviceOptions) {
		if m != nil {
			o.monitors = append(o.monitors, m)
		}
	}
}

// WithPrometheusRegistry registers metrics with reg instead of a private
// registry.
func WithPrometheusRegistry(reg *prometheus.Registry) ServiceOption {
	return func(o *serviceOptions) {
		o.promReg = reg
	}
}

// New opens the cache and assembles the pipeline described by cfg.
func New(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	s := &Service{
		cfg:    cfg,
		logger: slog.Default().With("component", "service"),
	}
	if err := s.open(options); err != nil {
		if cerr := s.Close(); cerr != nil {
			s.logger.Error("error cleaning up after failed open", "err", cerr)
		}
		return nil, err
	}
	return s, nil
}

func (s *Service) open(o *serviceOptions) error {
	var err error

	s.promReg = o.promReg
	if s.promReg == nil {
		s.promReg = prometheus.NewRegistry()
		s.promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if s.metrics, err = metrics.New(s.promReg); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	// Storage
	if s.backend, err = badger.OpenBackend(s.cfg.Cache.Path, s.cfg.Cache.InMemory); err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	if s.store, err = badger.NewResultStore(s.backend); err != nil {
		return err
	}
	var gcCtx context.Context
	gcCtx, s.stopGC = context.WithCancel(context.Background())
	s.backend.StartGC(gcCtx, s.cfg.Cache.GCInterval)

	if s.cache, err = cache.New(s.store,
		cache.WithNamespace(s.cfg.Cache.Namespace),
		cache.WithTTL(s.cfg.Cache.TTL),
	); err != nil {
		return err
	}
	if s.writer, err = cache.NewWriter(s.cache, s.cfg.Cache.Writers); err != nil {
		return err
	}
	s.writer.OnResult = s.metrics.ObserveWriteback

	// Compute
	if s.pool, err = offload.NewPool(s.cfg.Server.Workers); err != nil {
		return err
	}
	loader := o.loader
	if loader == nil {
		loader = engine.NewLoader(s.cfg.EngineParams())
	}
	s.registry = engine.NewRegistry(loader)
	s.registry.OnLoad = s.metrics.ObserveEngineLoad

	describer := o.describer
	if describer == nil && s.cfg.Vision.Enabled {
		visionCfg := s.cfg.Vision.Config
		if s.provider, err = openai.NewProvider(&visionCfg); err != nil {
			return fmt.Errorf("creating vision provider: %w", err)
		}
		describer = s.provider.Describer()
	}

	ocr := o.ocr
	if ocr == nil {
		ocr = extract.NewOCR(s.cfg.OCR)
	}
	extractor, err := extract.New(s.pool,
		extract.WithTranscriber(s.registry),
		extract.WithOCR(ocr),
		extract.WithDescriber(describer),
	)
	if err != nil {
		return err
	}

	// Transport
	fetchOpts := []fetch.Option{}
	switch {
	case o.s3 != nil:
		fetchOpts = append(fetchOpts, fetch.WithS3(o.s3))
	case s.cfg.Fetch.S3 != nil:
		fetchOpts = append(fetchOpts, fetch.WithS3(fetch.NewS3Client(*s.cfg.Fetch.S3)))
	}
	s.fetcher = fetch.New(s.cfg.FetchSettings(), fetchOpts...)

	monitor := ingestion.Monitor(s.metrics)
	if len(o.monitors) > 0 {
		monitor = append(ingestion.MultiMonitor{s.metrics}, o.monitors...)
	}
	s.pipeline, err = ingestion.NewPipeline(s.cache, s.writer, s.fetcher, extractor,
		ingestion.WithFanOut(s.cfg.Server.FanOut),
		ingestion.WithMonitor(monitor),
	)
	return err
}

// Close drains pending cache writes and releases everything in reverse
// order of construction. It is safe to call on a partially opened Service.
func (s *Service) Close() error {
	var errs []error

	if s.writer != nil {
		s.writer.Close()
	}
	if s.pool != nil {
		s.pool.Release()
	}
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			s.logger.Error("error closing speech engine", "err", err)
			errs = append(errs, err)
		}
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing vision provider", "err", err)
		}
	}
	if s.stopGC != nil {
		s.stopGC()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("error closing result store", "err", err)
			errs = append(errs, err)
		}
	}
	if s.backend != nil && !s.backend.IsClosed() {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Pipeline() *ingestion.Pipeline {
	return s.pipeline
}

func (s *Service) Fetcher() *fetch.Fetcher {
	return s.fetcher
}

func (s *Service) Cache() *cache.Cache {
	return s.cache
}

func (s *Service) Registry() *engine.Registry {
	return s.registry
}

// Gatherer exposes the registry holding the service metrics.
func (s *Service) Gatherer() prometheus.Gatherer {
	return s.promReg
}

// Flush blocks until pending cache writes have landed.
func (s *Service) Flush() {
	s.writer.Wait()
}
