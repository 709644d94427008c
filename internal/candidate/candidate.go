package candidate

import (
	"net"
	"net/netip"
	"strconv"
)

// RawPair is an unvalidated address/port pair as produced by a source.
type RawPair struct {
	Address string
	Port    string
}

// Candidate is a syntactically valid proxy endpoint. Two candidates are
// equal iff address and port are equal, so Candidate is usable as a map key.
type Candidate struct {
	Address string `json:"ip"`
	Port    int    `json:"port"`
}

// String returns host:port, bracketing IPv6 literals.
func (c Candidate) String() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// ProxyURL returns the http:// URL used to route requests through c.
func (c Candidate) ProxyURL() string {
	return "http://" + c.String()
}

// Stats summarizes a normalization pass.
type Stats struct {
	Input     int
	Invalid   int
	Duplicate int
	Accepted  int
}

// Parse validates a raw pair. The address must be an IP literal and the
// port an integer in [1, 65535].
func Parse(p RawPair) (Candidate, bool) {
	addr, err := netip.ParseAddr(p.Address)
	if err != nil {
		return Candidate{}, false
	}
	port, err := strconv.Atoi(p.Port)
	if err != nil || port < 1 || port > 65535 {
		return Candidate{}, false
	}
	return Candidate{Address: addr.String(), Port: port}, true
}

// Normalize merges pairs from all sources into a set of unique, valid
// candidates. Output is in first-occurrence order.
func Normalize(pairs []RawPair) []Candidate {
	out, _ := NormalizeWithStats(pairs)
	return out
}

// NormalizeWithStats is Normalize plus aggregate counts for reporting.
func NormalizeWithStats(pairs []RawPair) ([]Candidate, Stats) {
	stats := Stats{Input: len(pairs)}
	seen := make(map[Candidate]struct{}, len(pairs))
	var out []Candidate
	for _, p := range pairs {
		c, ok := Parse(p)
		if !ok {
			stats.Invalid++
			continue
		}
		if _, dup := seen[c]; dup {
			stats.Duplicate++
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	stats.Accepted = len(out)
	return out, stats
}
