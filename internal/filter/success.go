package filter

import (
	"time"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// MinSuccessFilter drops results with fewer than Min successful targets.
type MinSuccessFilter struct {
	Min int
}

func NewMinSuccessFilter(n int) *MinSuccessFilter { return &MinSuccessFilter{Min: n} }

func (f *MinSuccessFilter) Name() string { return "min-success" }

func (f *MinSuccessFilter) ShouldFilter(result *probe.Result) bool {
	return result.Successes() < f.Min
}

// LatencyFilter drops results whose fastest successful target took longer
// than Max, and results with no successful target at all.
type LatencyFilter struct {
	Max time.Duration
}

func NewLatencyFilter(max time.Duration) *LatencyFilter { return &LatencyFilter{Max: max} }

func (f *LatencyFilter) Name() string { return "latency" }

func (f *LatencyFilter) ShouldFilter(result *probe.Result) bool {
	best, ok := result.BestLatency()
	return !ok || best > f.Max
}
