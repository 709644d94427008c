package source

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/maxvaer/proxycheck/internal/candidate"
	"github.com/maxvaer/proxycheck/internal/netutil"
)

// File reads "ip:port" lines from a local file. Blank lines and lines
// starting with # are skipped; an optional http:// prefix is stripped.
type File struct {
	Path string
}

func NewFile(path string) *File { return &File{Path: path} }

func (s *File) Name() string { return "file:" + s.Path }

func (s *File) Candidates(_ context.Context) ([]candidate.RawPair, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening candidates file: %w", err)
	}
	defer f.Close()

	var pairs []candidate.RawPair
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "http://")
		line = strings.Fields(line)[0]
		host, port, err := net.SplitHostPort(line)
		if err != nil {
			continue
		}
		pairs = append(pairs, candidate.RawPair{Address: host, Port: port})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading candidates file: %w", err)
	}
	return pairs, nil
}

// CIDR expands a network range across a set of ports.
type CIDR struct {
	Range string
	Ports string
}

func NewCIDR(cidr, ports string) *CIDR { return &CIDR{Range: cidr, Ports: ports} }

func (s *CIDR) Name() string { return "cidr:" + s.Range }

func (s *CIDR) Candidates(_ context.Context) ([]candidate.RawPair, error) {
	return netutil.ExpandCandidates(s.Range, s.Ports)
}

// Static returns a fixed list of pairs.
type Static struct {
	Label string
	Pairs []candidate.RawPair
	Err   error
}

func (s *Static) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func (s *Static) Candidates(_ context.Context) ([]candidate.RawPair, error) {
	return s.Pairs, s.Err
}
