package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maxvaer/proxycheck/internal/candidate"
	"github.com/maxvaer/proxycheck/internal/config"
	"github.com/maxvaer/proxycheck/internal/filter"
	"github.com/maxvaer/proxycheck/internal/hook"
	"github.com/maxvaer/proxycheck/internal/output"
	"github.com/maxvaer/proxycheck/internal/probe"
	"github.com/maxvaer/proxycheck/internal/rank"
	"github.com/maxvaer/proxycheck/internal/resume"
	"github.com/maxvaer/proxycheck/internal/source"
	"github.com/maxvaer/proxycheck/internal/store"
	"github.com/maxvaer/proxycheck/pkg/version"
)

const storeTimeout = 30 * time.Second

// Run executes the full pipeline: gather, normalize, probe, rank, report.
// A report is always written, even when every source failed or the run
// was interrupted. Only configuration and output errors are returned.
func Run(ctx context.Context, opts *config.Options) error {
	logger := slog.Default()

	// 1. Build sources.
	sources, err := buildSources(opts)
	if err != nil {
		return err
	}

	gate, restoreTerm := startStdinToggle(opts.Quiet)
	defer restoreTerm()

	prober, err := probe.NewProber(probe.Config{
		Targets:         opts.Targets,
		Timeout:         opts.Timeout,
		UserAgent:       opts.UserAgent,
		FollowRedirects: opts.FollowRedirects,
		Gate:            gate,
	})
	if err != nil {
		return fmt.Errorf("creating prober: %w", err)
	}

	// 2. Gather and normalize.
	raw := source.Gather(ctx, logger, sources...)
	candidates, nstats := candidate.NormalizeWithStats(raw)
	logger.Info("Candidates normalized",
		"input", nstats.Input,
		"invalid", nstats.Invalid,
		"duplicate", nstats.Duplicate,
		"accepted", nstats.Accepted,
	)

	// 3. Resume support.
	var resumeState *resume.State
	var resumed []probe.Result
	if opts.ResumeFile != "" {
		existing, err := resume.Load(opts.ResumeFile)
		if err != nil {
			return fmt.Errorf("loading resume file: %w", err)
		}
		if existing != nil && existing.Matches(prober.Targets()) {
			resumeState = existing
			resumed = existing.Completed()
			before := len(candidates)
			candidates = resumeState.FilterRemaining(candidates)
			logger.Info("Resuming", "file", opts.ResumeFile, "skipped", before-len(candidates), "stored", len(resumed))
		} else {
			if existing != nil {
				logger.Warn("Resume file recorded other targets, starting over", "file", opts.ResumeFile)
			}
			resumeState = resume.New(opts.ResumeFile, prober.Targets())
		}
	}

	// 4. Create output writer.
	runID := uuid.NewString()
	out, err := createWriter(opts, runID, prober.Targets())
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()

	if err := out.WriteHeader(); err != nil {
		return err
	}

	if !opts.Quiet {
		printBanner(opts, prober.Targets(), len(candidates), len(resumed))
	}

	// 5. Filters and hook.
	chain := buildFilters(opts)
	var hookRunner *hook.Runner
	if opts.OnResult != "" {
		hookRunner = hook.NewRunner(opts.OnResult, logger)
	}

	var stats output.Stats
	stats.Candidates = len(candidates)
	stats.Resumed = len(resumed)
	var reported []probe.Result

	emit := func(res probe.Result) error {
		if res.Successes() > 0 {
			stats.Alive++
		} else {
			stats.Failed++
		}
		if filtered, reason := chain.Apply(&res); filtered {
			stats.Filtered++
			logger.Debug("Result filtered", "proxy", res.Candidate.String(), "filter", reason)
			return nil
		}
		if err := out.WriteResult(&res); err != nil {
			return err
		}
		reported = append(reported, res)
		if hookRunner != nil {
			hookRunner.Run(ctx, &res)
		}
		return nil
	}

	for _, res := range resumed {
		if err := emit(res); err != nil {
			return err
		}
	}

	// 6. Probe.
	progress := output.NewProgress(len(candidates), opts.Quiet)
	if gate != nil {
		progress.OnPause(gate.IsPaused)
	}
	progress.Start()
	startTime := time.Now()

	results := probe.RunPool(ctx, prober, candidates, probe.PoolConfig{
		Threads: opts.Threads,
		Gate:    gate,
	})

	var writeErr error
	for res := range results {
		progress.Record(res.Successes() > 0)
		if resumeState != nil {
			resumeState.Record(res)
		}
		if writeErr != nil {
			continue // drain so every task can finish
		}
		writeErr = emit(res)
	}
	progress.Stop()
	restoreTerm()

	// 7. Footer.
	stats.Duration = time.Since(startTime)
	active := stats.Duration
	if gate != nil {
		active -= gate.PausedDuration()
	}
	if active.Seconds() > 0 {
		stats.PerSecond = float64(progress.Completed()) / active.Seconds()
	}

	interrupted := ctx.Err() != nil
	if resumeState != nil {
		if interrupted {
			if err := resumeState.Save(); err != nil {
				logger.Error("Could not save resume state", "file", opts.ResumeFile, "error", err)
			} else {
				logger.Warn("Interrupted, progress saved; rerun with the same --resume-file to continue", "file", opts.ResumeFile)
			}
		} else if err := resumeState.Remove(); err != nil {
			logger.Warn("Could not remove resume file", "file", opts.ResumeFile, "error", err)
		}
	} else if interrupted {
		logger.Warn("Interrupted, writing partial report", "probed", progress.Completed(), "of", len(candidates))
	}

	if writeErr != nil {
		return writeErr
	}
	if err := out.WriteFooter(stats); err != nil {
		return err
	}

	logger.Info("Run complete",
		"run_id", runID,
		"probed", progress.Completed(),
		"alive", stats.Alive,
		"failed", stats.Failed,
		"filtered", stats.Filtered,
		"duration", stats.Duration.Round(time.Millisecond),
	)

	// 8. Optional database sink.
	if opts.DatabaseURL != "" {
		report := output.NewReport(runID, time.Now(), rank.Rank(reported))
		if err := saveReport(ctx, opts.DatabaseURL, report, stats); err != nil {
			return fmt.Errorf("saving report to database: %w", err)
		}
		logger.Info("Report stored in database", "run_id", runID, "results", len(report.Proxies))
	}
	return nil
}

// buildSources resolves named providers plus the local inputs.
func buildSources(opts *config.Options) ([]source.Source, error) {
	srcOpts := source.Options{Timeout: opts.Timeout}

	var sources []source.Source
	for _, name := range opts.Sources {
		src, err := source.ByName(name, srcOpts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if opts.Input != "" {
		// a missing file is a usage error, not an unreliable provider
		if _, err := os.Stat(opts.Input); err != nil {
			return nil, fmt.Errorf("input file: %w", err)
		}
		sources = append(sources, source.NewFile(opts.Input))
	}
	if opts.CIDR != "" {
		for _, cidr := range strings.Split(opts.CIDR, ",") {
			cidr = strings.TrimSpace(cidr)
			if cidr == "" {
				continue
			}
			src := source.NewCIDR(cidr, opts.Ports)
			if _, err := src.Candidates(context.Background()); err != nil {
				return nil, fmt.Errorf("expanding CIDR: %w", err)
			}
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		return nil, errors.New("no candidate sources (use --sources, --input or --cidr)")
	}
	return sources, nil
}

func buildFilters(opts *config.Options) *filter.Chain {
	chain := filter.NewChain()
	if opts.MinSuccess > 0 {
		chain.Add(filter.NewMinSuccessFilter(opts.MinSuccess))
	}
	if opts.MaxLatency > 0 {
		chain.Add(filter.NewLatencyFilter(opts.MaxLatency))
	}
	if len(opts.MatchStatus) > 0 {
		chain.Add(filter.NewStatusFilter(opts.MatchStatus))
	}
	return chain
}

func createWriter(opts *config.Options, runID string, targets []probe.Target) (output.Writer, error) {
	w, err := output.New(opts.OutputFormat, opts.OutputFile, targets, opts.NoColor, opts.Quiet)
	if err != nil {
		return nil, err
	}
	if jw, ok := w.(*output.JSONWriter); ok {
		jw.SetRunID(runID)
	}
	return output.NewRankedWriter(w), nil
}

// saveReport runs even after an interrupt, so it gets its own deadline
// detached from ctx cancellation.
func saveReport(ctx context.Context, dsn string, report output.Report, stats output.Stats) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	db, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return err
	}
	return db.SaveReport(ctx, report, stats)
}

func printBanner(opts *config.Options, targets []probe.Target, candidateCount, resumedCount int) {
	const (
		cyan   = "\033[36m"
		white  = "\033[97m"
		dim    = "\033[2m"
		yellow = "\033[33m"
		reset  = "\033[0m"
	)

	c, w, d, y, rs := cyan, white, dim, yellow, reset
	if opts.NoColor {
		c, w, d, y, rs = "", "", "", "", ""
	}

	fmt.Fprintf(os.Stderr, `
%s    ____  _________  _  ____  __       %s
%s   / __ \/ ___/ __ \| |/_/ / / /       %s
%s  / /_/ / /  / /_/ />  </ /_/ /        %s
%s / .___/_/   \____/_/|_|\__, /  check  %s %sv%s%s
%s/_/                    /____/          %s
%s    Free HTTP Proxy Checker            %s
`,
		c, rs,
		c, rs,
		c, rs,
		c, rs, d, version.Version, rs,
		c, rs,
		w, rs,
	)

	threads := "unbounded"
	if opts.Threads > 0 {
		threads = fmt.Sprintf("%d", opts.Threads)
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}

	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sCandidates:%s   %s%d%s\n", d, rs, w, candidateCount, rs)
	if resumedCount > 0 {
		fmt.Fprintf(os.Stderr, "  %sResumed:%s      %s%d%s\n", d, rs, w, resumedCount, rs)
	}
	fmt.Fprintf(os.Stderr, "  %sTargets:%s      %s%s%s\n", d, rs, w, strings.Join(names, ", "), rs)
	fmt.Fprintf(os.Stderr, "  %sThreads:%s      %s%s%s\n", d, rs, y, threads, rs)
	fmt.Fprintf(os.Stderr, "  %sTimeout:%s      %s%s%s\n", d, rs, y, opts.Timeout, rs)
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
