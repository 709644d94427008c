package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

// DefaultTimeout bounds each individual target probe.
const DefaultTimeout = 10 * time.Second

// Config is the read-only probe configuration shared by all tasks.
type Config struct {
	Targets         []Target
	Timeout         time.Duration
	UserAgent       string
	FollowRedirects bool
	Gate            *Gate // nil = never paused between targets
}

// Checker probes one candidate against every target.
type Checker interface {
	Check(ctx context.Context, c candidate.Candidate) Result
}

// Prober issues proxied GET requests for each configured target.
type Prober struct {
	targets         []Target
	timeout         time.Duration
	userAgent       string
	followRedirects bool
	gate            *Gate
}

// NewProber validates cfg and returns a Prober. Missing timeout and
// targets fall back to their defaults.
func NewProber(cfg Config) (*Prober, error) {
	targets := cfg.Targets
	if len(targets) == 0 {
		targets = DefaultTargets()
	}
	for _, t := range targets {
		u, err := url.Parse(t.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid target URL %q: %w", t.URL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("target %s: unsupported scheme %q", t.Name, u.Scheme)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "proxycheck/1.0"
	}
	return &Prober{
		targets:         append([]Target(nil), targets...),
		timeout:         timeout,
		userAgent:       ua,
		followRedirects: cfg.FollowRedirects,
		gate:            cfg.Gate,
	}, nil
}

// Targets returns the configured targets in probe order.
func (p *Prober) Targets() []Target {
	return append([]Target(nil), p.targets...)
}

// Check probes c against every target sequentially, in target order. A
// failure on one target never stops the remaining ones. A paused gate
// holds the next target until resumed; if ctx ends meanwhile the partial
// result is returned and callers must discard it.
func (p *Prober) Check(ctx context.Context, c candidate.Candidate) Result {
	res := Result{
		Candidate: c,
		CheckedAt: time.Now().UTC(),
		Outcomes:  make([]Outcome, 0, len(p.targets)),
	}

	client := p.newClient(c)
	defer client.CloseIdleConnections()

	for _, t := range p.targets {
		if p.gate != nil {
			if err := p.gate.Wait(ctx); err != nil {
				return res
			}
		}
		resp, err := p.do(ctx, client, t)
		res.Outcomes = append(res.Outcomes, Classify(t.Name, resp, err))
	}
	return res
}

func (p *Prober) newClient(c candidate.Candidate) *http.Client {
	proxyURL := &url.URL{Scheme: "http", Host: c.String()}
	transport := &http.Transport{
		Proxy:             http.ProxyURL(proxyURL),
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
		DialContext:       (&net.Dialer{Timeout: p.timeout}).DialContext,
		DisableKeepAlives: true,
	}
	client := &http.Client{Transport: transport}
	if !p.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// do performs one GET under its own deadline, covering dial, headers and
// the full body read.
func (p *Prober) do(ctx context.Context, client *http.Client, t Target) (*Response, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, deadlineErr(tctx, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return nil, deadlineErr(tctx, fmt.Errorf("reading body from %s: %w", t.URL, err))
	}

	return &Response{StatusCode: resp.StatusCode, Duration: time.Since(start)}, nil
}

// deadlineErr marks err as a timeout when the per-request deadline fired,
// since body reads interrupted by a deadline don't always say so.
func deadlineErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(context.DeadlineExceeded, err)
	}
	return err
}
