package ingestion

import (
	"time"

	"github.com/poiesic/refinery/core"
)

// Stage names a step of the per-item state machine.
type Stage string

const (
	StageCacheLookup Stage = "cache_lookup"
	StageFetch       Stage = "fetch"
	StageExtract     Stage = "extract"
)

// CacheResult classifies a cache lookup.
type CacheResult string

const (
	CacheHit   CacheResult = "hit"
	CacheMiss  CacheResult = "miss"
	CacheError CacheResult = "error"
)

// Monitor provides hooks to observe batch processing.
// Implementations must be safe for concurrent use when fan-out is above one.
type Monitor interface {
	BatchStarted(items int)
	CacheLookup(result CacheResult)
	StageCompleted(stage Stage, elapsed time.Duration)
	ItemCompleted(capability core.Capability, ok bool)
	BatchCompleted(status, succeeded, failed int)
}

// NoopMonitor ignores every event. Embed it to implement a subset of hooks.
type NoopMonitor struct{}

var _ Monitor = NoopMonitor{}

func (NoopMonitor) BatchStarted(_ int)                      {}
func (NoopMonitor) CacheLookup(_ CacheResult)               {}
func (NoopMonitor) StageCompleted(_ Stage, _ time.Duration) {}
func (NoopMonitor) ItemCompleted(_ core.Capability, _ bool) {}
func (NoopMonitor) BatchCompleted(_, _, _ int)              {}

// MultiMonitor fans events out to several monitors in order.
type MultiMonitor []Monitor

var _ Monitor = MultiMonitor(nil)

func (m MultiMonitor) BatchStarted(items int) {
	for _, mon := range m {
		mon.BatchStarted(items)
	}
}

func (m MultiMonitor) CacheLookup(result CacheResult) {
	for _, mon := range m {
		mon.CacheLookup(result)
	}
}

func (m MultiMonitor) StageCompleted(stage Stage, elapsed time.Duration) {
	for _, mon := range m {
		mon.StageCompleted(stage, elapsed)
	}
}

func (m MultiMonitor) ItemCompleted(capability core.Capability, ok bool) {
	for _, mon := range m {
		mon.ItemCompleted(capability, ok)
	}
}

func (m MultiMonitor) BatchCompleted(status, succeeded, failed int) {
	for _, mon := range m {
		mon.BatchCompleted(status, succeeded, failed)
	}
}
