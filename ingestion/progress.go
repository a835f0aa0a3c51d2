package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/refinery/core"
)

// ProgressMonitor writes a single updating progress line for batches run
// from the command line.
type ProgressMonitor struct {
	NoopMonitor

	writer         io.Writer
	total          int
	current        int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

var _ Monitor = (*ProgressMonitor)(nil)

// NewProgressMonitor creates a progress monitor.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N items
func NewProgressMonitor(writer io.Writer, reportInterval int) *ProgressMonitor {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressMonitor{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// BatchStarted begins tracking a batch of items.
func (p *ProgressMonitor) BatchStarted(items int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.total = items
	p.current = 0
	p.failed = 0
	p.lastReported = 0
}

// ItemCompleted advances the progress line.
func (p *ProgressMonitor) ItemCompleted(_ core.Capability, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	if p.current < p.total {
		p.current++
	}
	if !ok {
		p.failed++
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// BatchCompleted prints the final line.
func (p *ProgressMonitor) BatchCompleted(_, _, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
	p.started = false
}

// Elapsed returns the time since the current batch started.
func (p *ProgressMonitor) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressMonitor) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %d failed - %.1f items/s",
		p.current, p.total, percentage, p.failed, rate)
}
