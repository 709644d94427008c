package probe

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

// PoolConfig holds options for the probe pool.
type PoolConfig struct {
	Threads int   // <= 0 runs one goroutine per candidate
	Gate    *Gate // nil = no pause support
}

// RunPool runs one probe task per candidate and returns a channel of
// completed results in completion order. The channel is closed once every
// task has finished. Tasks interrupted by ctx are dropped, never sent
// half-filled.
func RunPool(
	ctx context.Context,
	checker Checker,
	items []candidate.Candidate,
	cfg PoolConfig,
) <-chan Result {
	// Sized so that no task ever blocks on send.
	resultsCh := make(chan Result, len(items))

	go func() {
		defer close(resultsCh)

		var g errgroup.Group
		if cfg.Threads > 0 {
			g.SetLimit(cfg.Threads)
		}

		for _, c := range items {
			c := c
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if cfg.Gate != nil {
					if err := cfg.Gate.Wait(ctx); err != nil {
						return nil
					}
				}
				if ctx.Err() != nil {
					return nil
				}
				res := checker.Check(ctx, c)
				if ctx.Err() != nil {
					return nil
				}
				resultsCh <- res
				return nil
			})
		}
		_ = g.Wait()
	}()

	return resultsCh
}
