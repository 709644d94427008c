package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// Stats holds aggregate run statistics.
type Stats struct {
	Candidates int // probed in this run
	Alive      int // at least one successful target
	Failed     int // no successful target
	Filtered   int // dropped by the filter chain
	Resumed    int // carried over from a resume file
	Duration   time.Duration
	PerSecond  float64
}

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader() error
	WriteResult(result *probe.Result) error
	WriteFooter(stats Stats) error
	Close() error
}

// New returns the writer for format. Target names fix the column layout
// of the tabular formats.
func New(format, outputFile string, targets []probe.Target, noColor, quiet bool) (Writer, error) {
	switch format {
	case "json":
		return NewJSONWriter(outputFile)
	case "csv":
		return NewCSVWriter(outputFile, targets)
	case "text":
		return NewTextWriter(outputFile, targets, noColor, quiet)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// openDest returns stdout, or the created file and its closer.
func openDest(outputFile string) (io.Writer, io.Closer, error) {
	if outputFile == "" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", outputFile, err)
	}
	return f, f, nil
}

func targetNames(targets []probe.Target) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	return names
}

// outcomeFor finds the outcome for target name, if present.
func outcomeFor(r *probe.Result, name string) (probe.Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Target == name {
			return o, true
		}
	}
	return probe.Outcome{}, false
}
