package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

// fakeProxy starts an HTTP server that answers proxied requests itself.
// For plain http targets the client sends the absolute URL to the proxy,
// so the handler can route on r.URL.Host.
func fakeProxy(t *testing.T, h http.HandlerFunc) candidate.Candidate {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	addr := srv.Listener.Addr().(*net.TCPAddr)
	return candidate.Candidate{Address: addr.IP.String(), Port: addr.Port}
}

// closedPort returns a loopback candidate nothing listens on.
func closedPort(t *testing.T) candidate.Candidate {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()
	return candidate.Candidate{Address: "127.0.0.1", Port: addr.Port}
}

func testTargets() []Target {
	return []Target{
		{Name: "google", URL: "http://google.test/"},
		{Name: "facebook", URL: "http://facebook.test/"},
	}
}

func TestCheckTimeoutThenSuccess(t *testing.T) {
	c := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Host == "google.test" {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		w.WriteHeader(200)
		fmt.Fprint(w, "hello from facebook")
	})

	p, err := NewProber(Config{Targets: testTargets(), Timeout: 300 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	res := p.Check(context.Background(), c)

	if len(res.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(res.Outcomes))
	}
	g, f := res.Outcomes[0], res.Outcomes[1]
	if g.Target != "google" || g.Error != TagTimeout || g.StatusCode != 408 || g.LatencyMs != nil {
		t.Errorf("google outcome = %+v, want timeout/408/no latency", g)
	}
	if f.Target != "facebook" || f.Error != TagNone || f.StatusCode != 200 || f.LatencyMs == nil || *f.LatencyMs < 0 {
		t.Errorf("facebook outcome = %+v, want none/200/latency", f)
	}
	if res.Successes() != 1 {
		t.Errorf("Successes = %d, want 1", res.Successes())
	}
	if res.CheckedAt.IsZero() {
		t.Error("CheckedAt not set")
	}
	if res.Candidate != c {
		t.Errorf("Candidate = %+v, want %+v", res.Candidate, c)
	}
}

func TestCheckVisitsTargetsInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		hosts []string
	)
	c := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hosts = append(hosts, r.URL.Host)
		mu.Unlock()
		w.WriteHeader(204)
	})

	targets := []Target{
		{Name: "a", URL: "http://a.test/"},
		{Name: "b", URL: "http://b.test/"},
		{Name: "c", URL: "http://c.test/"},
	}
	p, err := NewProber(Config{Targets: targets, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	res := p.Check(context.Background(), c)

	if len(res.Outcomes) != len(targets) {
		t.Fatalf("expected %d outcomes, got %d", len(targets), len(res.Outcomes))
	}
	for i, o := range res.Outcomes {
		if o.Target != targets[i].Name {
			t.Errorf("outcome[%d].Target = %q, want %q", i, o.Target, targets[i].Name)
		}
		if o.StatusCode != 204 {
			t.Errorf("outcome[%d].StatusCode = %d, want 204", i, o.StatusCode)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(hosts, ",") != "a.test,b.test,c.test" {
		t.Errorf("proxy saw hosts %v", hosts)
	}
}

func TestCheckConnectionRefused(t *testing.T) {
	p, err := NewProber(Config{Targets: testTargets(), Timeout: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	res := p.Check(context.Background(), closedPort(t))

	for _, o := range res.Outcomes {
		if o.Error != TagConnection || o.StatusCode != 503 {
			t.Errorf("outcome %+v, want connection/503", o)
		}
	}
	if res.Successes() != 0 {
		t.Errorf("Successes = %d, want 0", res.Successes())
	}
}

func TestCheckDroppedConnectionIsOther(t *testing.T) {
	c := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer is not a hijacker")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	})

	p, err := NewProber(Config{Targets: testTargets()[:1], Timeout: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	res := p.Check(context.Background(), c)

	o := res.Outcomes[0]
	if o.Error != TagOther || o.StatusCode != 503 || o.Detail == "" {
		t.Errorf("outcome = %+v, want other/503 with detail", o)
	}
}

func TestCheckDoesNotFollowRedirectsByDefault(t *testing.T) {
	c := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "http://google.test/next", http.StatusFound)
			return
		}
		w.WriteHeader(200)
	})

	p, err := NewProber(Config{Targets: testTargets()[:1], Timeout: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Check(context.Background(), c).Outcomes[0].StatusCode; got != 302 {
		t.Errorf("status = %d, want 302", got)
	}

	p, err = NewProber(Config{Targets: testTargets()[:1], Timeout: 2 * time.Second, FollowRedirects: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Check(context.Background(), c).Outcomes[0].StatusCode; got != 200 {
		t.Errorf("status with redirects = %d, want 200", got)
	}
}

func TestCheckSendsUserAgent(t *testing.T) {
	uaCh := make(chan string, 1)
	c := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		uaCh <- r.UserAgent()
	})

	p, err := NewProber(Config{Targets: testTargets()[:1], UserAgent: "probe-test/2"})
	if err != nil {
		t.Fatal(err)
	}
	p.Check(context.Background(), c)
	if ua := <-uaCh; ua != "probe-test/2" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestNewProberDefaults(t *testing.T) {
	p, err := NewProber(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if p.timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", p.timeout, DefaultTimeout)
	}
	got := p.Targets()
	if len(got) != 2 || got[0].Name != "google" || got[1].Name != "facebook" {
		t.Errorf("default targets = %+v", got)
	}
}

func TestNewProberRejectsBadTargets(t *testing.T) {
	if _, err := NewProber(Config{Targets: []Target{{Name: "ftp", URL: "ftp://example.com/"}}}); err == nil {
		t.Error("expected error for ftp target")
	}
	if _, err := NewProber(Config{Targets: []Target{{Name: "bad", URL: "http://[::1"}}}); err == nil {
		t.Error("expected error for unparsable target")
	}
}

func TestCheckPausesBetweenTargets(t *testing.T) {
	gate := NewGate()
	var (
		mu    sync.Mutex
		hosts []string
	)
	c := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hosts = append(hosts, r.URL.Host)
		first := len(hosts) == 1
		mu.Unlock()
		if first {
			gate.Toggle() // pause while this candidate is in flight
		}
		w.WriteHeader(200)
	})
	seen := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(hosts)
	}

	p, err := NewProber(Config{Targets: testTargets(), Timeout: 2 * time.Second, Gate: gate})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan Result, 1)
	go func() { done <- p.Check(context.Background(), c) }()

	time.Sleep(200 * time.Millisecond)
	if n := seen(); n != 1 {
		t.Fatalf("proxy saw %d requests while paused, want 1", n)
	}
	select {
	case <-done:
		t.Fatal("Check finished while paused")
	default:
	}

	gate.Toggle()
	select {
	case res := <-done:
		if len(res.Outcomes) != 2 || res.Successes() != 2 {
			t.Errorf("outcomes after resume = %+v", res.Outcomes)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Check did not resume")
	}
}

func TestCheckPausedCancelReturnsPartial(t *testing.T) {
	gate := NewGate()
	gate.Toggle()
	c := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	p, err := NewProber(Config{Targets: testTargets(), Timeout: time.Second, Gate: gate})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := p.Check(ctx, c)
	if len(res.Outcomes) != 0 {
		t.Errorf("got %d outcomes from a cancelled paused check", len(res.Outcomes))
	}
}
