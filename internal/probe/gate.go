package probe

import (
	"context"
	"sync"
	"time"
)

// Gate is a cooperative pause/resume switch for probe tasks. Tasks call
// Wait before starting and before each target; while paused they block
// until resumed or until their context ends.
type Gate struct {
	mu          sync.Mutex
	paused      bool
	resume      chan struct{} // closed on resume
	pausedSince time.Time
	totalPaused time.Duration
}

// NewGate creates a Gate in the running state.
func NewGate() *Gate {
	return &Gate{}
}

// Wait blocks while the gate is paused. It returns ctx.Err() if the
// context ends first.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if !g.paused {
			g.mu.Unlock()
			return nil
		}
		ch := g.resume
		g.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Toggle flips between paused and running and returns true if the gate is
// now paused.
func (g *Gate) Toggle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.totalPaused += time.Since(g.pausedSince)
		g.paused = false
		close(g.resume)
	} else {
		g.paused = true
		g.pausedSince = time.Now()
		g.resume = make(chan struct{})
	}
	return g.paused
}

// IsPaused returns whether the gate is currently paused.
func (g *Gate) IsPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// PausedDuration returns the total time spent paused, including any
// ongoing pause.
func (g *Gate) PausedDuration() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.totalPaused
	if g.paused {
		d += time.Since(g.pausedSince)
	}
	return d
}
