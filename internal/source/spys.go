package source

import (
	"context"
	"strings"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

const spysURL = "https://spys.me/proxy.txt"

// Spys reads the plain-text list published by spys.me. Data lines start
// with "ip:port" followed by country and flags.
type Spys struct {
	URL string
	f   fetcher
}

// NewSpys returns a Spys source with the public list URL.
func NewSpys(opts Options) *Spys {
	return &Spys{URL: spysURL, f: newFetcher(opts)}
}

func (s *Spys) Name() string { return "spys" }

func (s *Spys) Candidates(ctx context.Context) ([]candidate.RawPair, error) {
	body, err := s.f.get(ctx, s.URL, nil)
	if err != nil {
		return nil, err
	}
	return parseSpys(string(body)), nil
}

func parseSpys(text string) []candidate.RawPair {
	var pairs []candidate.RawPair
	for _, line := range strings.Split(text, "\n") {
		if !ipPrefix.MatchString(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		parts := strings.Split(fields[0], ":")
		if len(parts) != 2 {
			continue
		}
		pairs = append(pairs, candidate.RawPair{Address: parts[0], Port: parts[1]})
	}
	return pairs
}
