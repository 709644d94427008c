package probe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateWaitNotPaused(t *testing.T) {
	g := NewGate()
	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() blocked when not paused")
	}
}

func TestGateToggle(t *testing.T) {
	g := NewGate()
	if g.IsPaused() {
		t.Fatal("expected running initially")
	}
	if !g.Toggle() || !g.IsPaused() {
		t.Fatal("expected paused after first Toggle")
	}
	if g.Toggle() || g.IsPaused() {
		t.Fatal("expected running after second Toggle")
	}
}

func TestGateBlocksAndResumes(t *testing.T) {
	g := NewGate()
	g.Toggle()

	var reached atomic.Int32
	var wg sync.WaitGroup
	n := 5
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reached.Add(1)
			_ = g.Wait(context.Background())
		}()
	}

	time.Sleep(50 * time.Millisecond)
	if reached.Load() != int32(n) {
		t.Fatalf("expected %d goroutines at Wait, got %d", n, reached.Load())
	}

	g.Toggle()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutines did not unblock after resume")
	}
}

func TestGateWaitHonorsContext(t *testing.T) {
	g := NewGate()
	g.Toggle()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := g.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v, want deadline exceeded", err)
	}
}

func TestGatePausedDuration(t *testing.T) {
	g := NewGate()
	g.Toggle()
	time.Sleep(100 * time.Millisecond)
	g.Toggle()

	d := g.PausedDuration()
	if d < 80*time.Millisecond || d > 500*time.Millisecond {
		t.Fatalf("expected ~100ms paused, got %s", d)
	}
}
