package output

import (
	"github.com/maxvaer/proxycheck/internal/probe"
	"github.com/maxvaer/proxycheck/internal/rank"
)

// RankedWriter buffers results and replays them in rank order when
// WriteFooter is called. It wraps any other Writer.
type RankedWriter struct {
	inner   Writer
	results []probe.Result
}

// NewRankedWriter wraps inner and buffers results for ranked replay.
func NewRankedWriter(inner Writer) *RankedWriter {
	return &RankedWriter{inner: inner}
}

func (w *RankedWriter) WriteHeader() error {
	return w.inner.WriteHeader()
}

func (w *RankedWriter) WriteResult(result *probe.Result) error {
	w.results = append(w.results, *result)
	return nil
}

func (w *RankedWriter) WriteFooter(stats Stats) error {
	ranked := rank.Rank(w.results)
	for i := range ranked {
		if err := w.inner.WriteResult(&ranked[i]); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(stats)
}

func (w *RankedWriter) Close() error {
	return w.inner.Close()
}
