package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/maxvaer/proxycheck/internal/probe"
)

const (
	ReportStatus      = "success"
	ReportVersion     = "1.0.0"
	ReportDescription = "List of free proxies with status information"
	ReportAuthor      = "snehkr"
)

// Report is the document written at the end of a run. Proxies are in
// ranked order.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Proxies     []probe.Result
}

// NewReport stamps results with run metadata.
func NewReport(runID string, generatedAt time.Time, proxies []probe.Result) Report {
	return Report{RunID: runID, GeneratedAt: generatedAt.UTC(), Proxies: proxies}
}

// reportDoc fixes the top-level key order alphabetically; entries are maps
// so their keys come out sorted too.
type reportDoc struct {
	Author      string           `json:"author"`
	Description string           `json:"description"`
	GeneratedAt string           `json:"generated_at"`
	Proxies     []map[string]any `json:"proxies"`
	RunID       string           `json:"run_id"`
	Status      string           `json:"status"`
	Version     string           `json:"version"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	doc := reportDoc{
		Author:      ReportAuthor,
		Description: ReportDescription,
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		Proxies:     make([]map[string]any, 0, len(r.Proxies)),
		RunID:       r.RunID,
		Status:      ReportStatus,
		Version:     ReportVersion,
	}
	for i := range r.Proxies {
		doc.Proxies = append(doc.Proxies, Entry(&r.Proxies[i]))
	}
	return json.Marshal(doc)
}

// Encode writes r with four-space indentation.
func (r Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Entry flattens one result into the per-proxy report object:
// ip, port, last_checked and <target>_status, <target>_error,
// <target>_total_time for every outcome.
func Entry(r *probe.Result) map[string]any {
	e := map[string]any{
		"ip":           r.Candidate.Address,
		"port":         strconv.Itoa(r.Candidate.Port),
		"last_checked": r.CheckedAt.UTC().Format(time.RFC3339),
	}
	for _, o := range r.Outcomes {
		e[o.Target+"_status"] = o.StatusCode
		e[o.Target+"_error"] = ErrorText(o)
		if o.LatencyMs != nil {
			e[o.Target+"_total_time"] = *o.LatencyMs
		} else {
			e[o.Target+"_total_time"] = nil
		}
	}
	return e
}

// ErrorText renders an outcome's tag the way report consumers expect.
func ErrorText(o probe.Outcome) string {
	switch o.Error {
	case probe.TagNone:
		return "no"
	case probe.TagTimeout:
		return "timeout error"
	case probe.TagConnection:
		return "connection error"
	default:
		return fmt.Sprintf("unknown error: %s.", o.Detail)
	}
}
