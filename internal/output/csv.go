package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// CSVWriter writes one row per candidate with three columns per target.
type CSVWriter struct {
	w       *csv.Writer
	closer  io.Closer
	targets []string
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string, targets []probe.Target) (*CSVWriter, error) {
	w, closer, err := openDest(outputFile)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer, targets: targetNames(targets)}, nil
}

func (c *CSVWriter) WriteHeader() error {
	header := []string{"ip", "port", "successes"}
	for _, name := range c.targets {
		header = append(header, name+"_status", name+"_error", name+"_ms")
	}
	return c.w.Write(header)
}

func (c *CSVWriter) WriteResult(result *probe.Result) error {
	row := []string{
		result.Candidate.Address,
		strconv.Itoa(result.Candidate.Port),
		strconv.Itoa(result.Successes()),
	}
	for _, name := range c.targets {
		o, ok := outcomeFor(result, name)
		if !ok {
			row = append(row, "", "", "")
			continue
		}
		ms := ""
		if o.LatencyMs != nil {
			ms = strconv.FormatInt(*o.LatencyMs, 10)
		}
		row = append(row, strconv.Itoa(o.StatusCode), o.Error.String(), ms)
	}
	return c.w.Write(row)
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
