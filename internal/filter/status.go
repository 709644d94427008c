package filter

import "github.com/maxvaer/proxycheck/internal/probe"

// StatusFilter keeps results where at least one target answered with one of
// the given status codes. Proxies that return their own error or captive
// pages still count as successes otherwise.
type StatusFilter struct {
	include map[int]struct{}
}

// NewStatusFilter creates a status code filter.
func NewStatusFilter(include []int) *StatusFilter {
	f := &StatusFilter{include: make(map[int]struct{}, len(include))}
	for _, code := range include {
		f.include[code] = struct{}{}
	}
	return f
}

func (f *StatusFilter) Name() string { return "status" }

func (f *StatusFilter) ShouldFilter(result *probe.Result) bool {
	if len(f.include) == 0 {
		return false
	}
	for _, o := range result.Outcomes {
		if !o.OK() {
			continue
		}
		if _, ok := f.include[o.StatusCode]; ok {
			return false
		}
	}
	return true
}
