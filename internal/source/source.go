// Package source fetches raw proxy candidates from remote providers and
// local inputs.
//
// Every provider implements Source. Providers are unreliable by nature:
// Gather treats any provider error or empty response as "no candidates"
// and keeps going.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

// Source yields raw address/port pairs.
type Source interface {
	Name() string
	Candidates(ctx context.Context) ([]candidate.RawPair, error)
}

// Options configures the HTTP-backed providers.
type Options struct {
	Timeout   time.Duration // per fetch, default 10s
	UserAgent string        // default browserUserAgent
	Client    *http.Client  // overrides Timeout when set
}

// ipPrefix matches lines or cells that start with a dotted quad.
var ipPrefix = regexp.MustCompile(`^\s?\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

type constructor func(Options) Source

var registry = map[string]constructor{
	"spys":          func(o Options) Source { return NewSpys(o) },
	"freeproxylist": func(o Options) Source { return NewFreeProxyList(o) },
	"proxydaily":    func(o Options) Source { return NewProxyDaily(o) },
}

// Names lists the registered remote providers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName returns the registered provider called name.
func ByName(name string, opts Options) (Source, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %v)", name, Names())
	}
	return ctor(opts), nil
}

// Gather runs every source concurrently and concatenates their pairs in
// source order. Failing or empty sources contribute nothing.
func Gather(ctx context.Context, logger *slog.Logger, sources ...Source) []candidate.RawPair {
	if logger == nil {
		logger = slog.Default()
	}
	perSource := make([][]candidate.RawPair, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		i, src := i, src
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			pairs, err := src.Candidates(ctx)
			if err != nil {
				logger.Warn("source failed", "source", src.Name(), "error", err)
				return
			}
			if len(pairs) == 0 {
				logger.Warn("source returned no candidates", "source", src.Name())
				return
			}
			logger.Debug("source fetched", "source", src.Name(), "pairs", len(pairs), "duration", time.Since(start).Round(time.Millisecond))
			perSource[i] = pairs
		}()
	}
	wg.Wait()

	var all []candidate.RawPair
	for _, pairs := range perSource {
		all = append(all, pairs...)
	}
	return all
}
