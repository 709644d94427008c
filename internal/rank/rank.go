// Package rank orders probe results by reliability.
package rank

import (
	"sort"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// Rank returns results sorted by success count, descending. The sort is
// stable: equal counts keep their input order, which is the pool's
// completion order and therefore not deterministic across runs.
// Malformed results (no outcomes, or an unknown error tag) are left out.
// The input slice is not modified.
func Rank(results []probe.Result) []probe.Result {
	type scored struct {
		res       probe.Result
		successes int
	}
	ranked := make([]scored, 0, len(results))
	for _, r := range results {
		if !wellFormed(r) {
			continue
		}
		ranked = append(ranked, scored{res: r, successes: r.Successes()})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].successes > ranked[j].successes
	})

	out := make([]probe.Result, len(ranked))
	for i, s := range ranked {
		out[i] = s.res
	}
	return out
}

func wellFormed(r probe.Result) bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Error.Valid() {
			return false
		}
	}
	return true
}
