package output

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// JSONWriter buffers results and writes a single Report on WriteFooter.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	runID   string
	now     func() time.Time
	results []probe.Result
}

// NewJSONWriter creates a JSON report writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	w, closer, err := openDest(outputFile)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{w: w, closer: closer, runID: uuid.NewString(), now: time.Now}, nil
}

// SetRunID overrides the generated run ID so report and store agree.
func (j *JSONWriter) SetRunID(id string) { j.runID = id }

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(result *probe.Result) error {
	j.results = append(j.results, *result)
	return nil
}

func (j *JSONWriter) WriteFooter(_ Stats) error {
	return NewReport(j.runID, j.now(), j.results).Encode(j.w)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
