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

package metrics

import (
	"strconv"
	"time"

	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/ingestion"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "refinery"

// Collector exposes batch processing metrics and implements
// ingestion.Monitor.
type Collector struct {
	items        *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	stages       *prometheus.HistogramVec
	batches      *prometheus.CounterVec
	batchSize    prometheus.Histogram
	writebacks   *prometheus.CounterVec
	engineLoads  *prometheus.CounterVec
}

var _ ingestion.Monitor = (*Collector)(nil)

// New creates a Collector and registers it with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Batch items by capability and outcome.",
		}, []string{"capability", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each item stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"stage"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Completed batches by HTTP status.",
		}, []string{"status"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_items",
			Help:      "Number of items per batch.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		writebacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writebacks_total",
			Help:      "Asynchronous cache writes by outcome.",
		}, []string{"outcome"}),
		engineLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_loads_total",
			Help:      "Transcription model loads by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		for _, col := range c.collectors() {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.items, c.cacheLookups, c.stages, c.batches, c.batchSize, c.writebacks, c.engineLoads,
	}
}

func (c *Collector) BatchStarted(items int) {
	c.batchSize.Observe(float64(items))
}

func (c *Collector) CacheLookup(result ingestion.CacheResult) {
	c.cacheLookups.WithLabelValues(string(result)).Inc()
}

func (c *Collector) StageCompleted(stage ingestion.Stage, elapsed time.Duration) {
	c.stages.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
}

func (c *Collector) ItemCompleted(capability core.Capability, ok bool) {
	c.items.WithLabelValues(capability.String(), outcome(ok)).Inc()
}

func (c *Collector) BatchCompleted(status, _, _ int) {
	c.batches.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveWriteback matches cache.Writer's OnResult hook.
func (c *Collector) ObserveWriteback(_ string, err error) {
	c.writebacks.WithLabelValues(outcome(err == nil)).Inc()
}

// ObserveEngineLoad matches engine.Registry's OnLoad hook.
func (c *Collector) ObserveEngineLoad(_ time.Duration, err error) {
	c.engineLoads.WithLabelValues(outcome(err == nil)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
