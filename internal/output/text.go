package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorDim    = "\033[2m"
)

// TextWriter writes a colored one-line-per-candidate table.
type TextWriter struct {
	w       io.Writer
	closer  io.Closer
	targets []string
	noColor bool
	quiet   bool
}

// NewTextWriter creates a text output writer. If outputFile is empty, stdout
// is used. noColor disables ANSI escape codes.
func NewTextWriter(outputFile string, targets []probe.Target, noColor, quiet bool) (*TextWriter, error) {
	w, closer, err := openDest(outputFile)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		// never color a file
		noColor = true
	}
	return &TextWriter{w: w, closer: closer, targets: targetNames(targets), noColor: noColor, quiet: quiet}, nil
}

func (t *TextWriter) WriteHeader() error {
	if t.quiet {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(t.paint(colorDim))
	fmt.Fprintf(&sb, "%-22s %3s", "Proxy", "OK")
	for _, name := range t.targets {
		fmt.Fprintf(&sb, "  %-18s", name)
	}
	sb.WriteString(t.paint(colorReset))
	_, err := fmt.Fprintln(t.w, strings.TrimRight(sb.String(), " "))
	return err
}

func (t *TextWriter) WriteResult(result *probe.Result) error {
	var sb strings.Builder
	n := result.Successes()
	fmt.Fprintf(&sb, "%-22s %s%3d%s", result.Candidate.String(),
		t.paint(t.colorForSuccesses(n)), n, t.paint(colorReset))
	for _, name := range t.targets {
		o, ok := outcomeFor(result, name)
		cell := "-"
		color := ""
		if ok {
			cell, color = t.cell(o)
		}
		fmt.Fprintf(&sb, "  %s%-18s%s", t.paint(color), cell, t.paint(colorReset))
	}
	_, err := fmt.Fprintln(t.w, strings.TrimRight(sb.String(), " "))
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	if t.quiet {
		return nil
	}
	_, err := fmt.Fprintf(os.Stderr,
		"\nCompleted: %d candidates | Alive: %d | Failed: %d | Filtered: %d | Duration: %s | %.1f/s\n",
		stats.Candidates,
		stats.Alive,
		stats.Failed,
		stats.Filtered,
		stats.Duration.Round(time.Millisecond),
		stats.PerSecond,
	)
	return err
}

func (t *TextWriter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

func (t *TextWriter) cell(o probe.Outcome) (string, string) {
	if o.OK() {
		color := colorGreen
		if o.StatusCode >= 400 {
			color = colorYellow
		}
		return fmt.Sprintf("%d %dms", o.StatusCode, *o.LatencyMs), color
	}
	return fmt.Sprintf("%d %s", o.StatusCode, o.Error), colorRed
}

func (t *TextWriter) colorForSuccesses(n int) string {
	switch {
	case n == 0:
		return colorRed
	case n < len(t.targets):
		return colorYellow
	default:
		return colorGreen
	}
}

func (t *TextWriter) paint(code string) string {
	if t.noColor {
		return ""
	}
	return code
}
