package probe

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

// fakeChecker records concurrency and returns one success per candidate.
type fakeChecker struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
}

func (f *fakeChecker) Check(ctx context.Context, c candidate.Candidate) Result {
	f.calls.Add(1)
	n := f.running.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer f.running.Add(-1)

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}
	ms := int64(1)
	return Result{
		Candidate: c,
		CheckedAt: time.Now().UTC(),
		Outcomes:  []Outcome{{Target: "t", StatusCode: 200, LatencyMs: &ms}},
	}
}

func makeCandidates(n int) []candidate.Candidate {
	out := make([]candidate.Candidate, n)
	for i := range out {
		out[i] = candidate.Candidate{Address: "10.0.0.1", Port: 1000 + i}
	}
	return out
}

func collect(ch <-chan Result) []Result {
	var out []Result
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestRunPoolOneResultPerCandidate(t *testing.T) {
	items := makeCandidates(50)
	fc := &fakeChecker{delay: 10 * time.Millisecond}

	results := collect(RunPool(context.Background(), fc, items, PoolConfig{}))
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	seen := make(map[candidate.Candidate]bool)
	for _, r := range results {
		if seen[r.Candidate] {
			t.Errorf("duplicate result for %s", r.Candidate)
		}
		seen[r.Candidate] = true
	}
}

func TestRunPoolUnboundedRunsAllConcurrently(t *testing.T) {
	items := makeCandidates(20)
	fc := &fakeChecker{delay: 200 * time.Millisecond}

	start := time.Now()
	collect(RunPool(context.Background(), fc, items, PoolConfig{}))
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("unbounded pool took %s, expected tasks to overlap", elapsed)
	}
	if fc.peak.Load() < 2 {
		t.Errorf("peak concurrency = %d, expected overlap", fc.peak.Load())
	}
}

func TestRunPoolRespectsThreadLimit(t *testing.T) {
	items := makeCandidates(12)
	fc := &fakeChecker{delay: 20 * time.Millisecond}

	results := collect(RunPool(context.Background(), fc, items, PoolConfig{Threads: 3}))
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	if peak := fc.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestRunPoolEmpty(t *testing.T) {
	results := collect(RunPool(context.Background(), &fakeChecker{}, nil, PoolConfig{}))
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRunPoolCancelDropsIncomplete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fc := &fakeChecker{delay: 5 * time.Second}

	ch := RunPool(ctx, fc, makeCandidates(10), PoolConfig{Threads: 2})
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan []Result)
	go func() { done <- collect(ch) }()
	select {
	case results := <-done:
		if len(results) != 0 {
			t.Errorf("expected interrupted tasks to be dropped, got %d", len(results))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pool did not close after cancel")
	}
}

func TestRunPoolGateHoldsTasks(t *testing.T) {
	gate := NewGate()
	gate.Toggle() // pause

	fc := &fakeChecker{}
	ch := RunPool(context.Background(), fc, makeCandidates(5), PoolConfig{Gate: gate})

	time.Sleep(50 * time.Millisecond)
	if n := fc.calls.Load(); n != 0 {
		t.Fatalf("expected no checks while paused, got %d", n)
	}

	gate.Toggle() // resume
	if results := collect(ch); len(results) != 5 {
		t.Errorf("expected 5 results after resume, got %d", len(results))
	}
}
