package ingestion

import (
	"net/http"

	"github.com/poiesic/refinery/core"
)

// Outcome aggregates the per-item results of one batch.
type Outcome struct {
	Results   []core.BatchItemResult
	Succeeded int
	Failed    int
}

// NewOutcome tallies results. A nil slice becomes an empty one.
func NewOutcome(results []core.BatchItemResult) *Outcome {
	out := &Outcome{Results: results}
	if out.Results == nil {
		out.Results = []core.BatchItemResult{}
	}
	for _, r := range out.Results {
		if r.OK() {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out
}

// Status returns 200 when nothing failed, 422 when nothing succeeded and
// 207 otherwise.
func (o *Outcome) Status() int {
	return core.StatusForCounts(o.Succeeded, o.Failed)
}

// Response builds the JSON envelope for the outcome.
func (o *Outcome) Response() core.BatchResponse {
	return core.BatchResponse{
		Success: o.Status() != http.StatusUnprocessableEntity,
		Data:    o.Results,
		Message: core.BatchMessage(o.Succeeded, o.Failed),
	}
}
