package output

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Progress tracks and displays probe progress on stderr.
type Progress struct {
	total     int
	completed atomic.Int64
	alive     atomic.Int64
	failed    atomic.Int64
	start     time.Time
	done      chan struct{}
	stopped   chan struct{}
	quiet     bool
	w         io.Writer
	paused    func() bool
}

// NewProgress creates a progress tracker. Call Start() to begin display updates.
func NewProgress(total int, quiet bool) *Progress {
	return &Progress{
		total:   total,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		quiet:   quiet,
		w:       os.Stderr,
	}
}

// OnPause makes the display show a paused marker while fn returns true.
func (p *Progress) OnPause(fn func() bool) { p.paused = fn }

// Start begins periodically printing progress to stderr.
func (p *Progress) Start() {
	if p.quiet {
		close(p.stopped)
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.print()
			case <-p.done:
				p.print()
				fmt.Fprint(p.w, "\n")
				return
			}
		}
	}()
}

// Record counts one finished candidate.
func (p *Progress) Record(alive bool) {
	p.completed.Add(1)
	if alive {
		p.alive.Add(1)
	} else {
		p.failed.Add(1)
	}
}

// Completed returns the number of recorded candidates.
func (p *Progress) Completed() int { return int(p.completed.Load()) }

// Stop ends the progress display and waits for the final line.
func (p *Progress) Stop() {
	close(p.done)
	<-p.stopped
}

func (p *Progress) print() {
	completed := p.completed.Load()
	elapsed := time.Since(p.start).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(completed) / elapsed
	}

	pct := float64(0)
	if p.total > 0 {
		pct = float64(completed) / float64(p.total) * 100
	}

	eta := ""
	if rate > 0 && completed < int64(p.total) {
		remaining := float64(int64(p.total)-completed) / rate
		eta = fmt.Sprintf("ETA: %s", time.Duration(remaining*float64(time.Second)).Round(time.Second))
	}
	if p.paused != nil && p.paused() {
		eta = "PAUSED"
	}

	fmt.Fprintf(p.w, "\r\033[K[%3.0f%%] %d/%d | %.1f/s | Alive: %d | Failed: %d | %s",
		pct, completed, p.total, rate,
		p.alive.Load(), p.failed.Load(), eta)
}
