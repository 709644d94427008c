package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

const (
	freeProxyListURL   = "https://free-proxy-list.net"
	freeProxyListClass = "table table-striped table-bordered"
)

var errTableNotFound = errors.New("proxy table not found")

// FreeProxyList scrapes the HTML table on free-proxy-list.net. The first
// two cells of each row hold the address and port.
type FreeProxyList struct {
	URL string
	f   fetcher
}

// NewFreeProxyList returns a FreeProxyList source with the public page URL.
func NewFreeProxyList(opts Options) *FreeProxyList {
	return &FreeProxyList{URL: freeProxyListURL, f: newFetcher(opts)}
}

func (s *FreeProxyList) Name() string { return "freeproxylist" }

func (s *FreeProxyList) Candidates(ctx context.Context) ([]candidate.RawPair, error) {
	body, err := s.f.get(ctx, s.URL, nil)
	if err != nil {
		return nil, err
	}
	return parseFreeProxyList(body)
}

func parseFreeProxyList(body []byte) ([]candidate.RawPair, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	table := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && attr(n, "class") == freeProxyListClass
	})
	if table == nil {
		return nil, errTableNotFound
	}

	var pairs []candidate.RawPair
	for _, tr := range findAll(table, atom.Tr) {
		tds := findAll(tr, atom.Td)
		if len(tds) < 2 {
			continue
		}
		ip := strings.TrimSpace(textOf(tds[0]))
		port := strings.TrimSpace(textOf(tds[1]))
		if ipPrefix.MatchString(ip) {
			pairs = append(pairs, candidate.RawPair{Address: ip, Port: port})
		}
	}
	return pairs, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findFirst returns the first node under n, depth first, matching fn.
func findFirst(n *html.Node, fn func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && fn(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant element of n with the given tag.
func findAll(n *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
