package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/maxvaer/proxycheck/internal/candidate"
	"github.com/maxvaer/proxycheck/internal/output"
	"github.com/maxvaer/proxycheck/internal/probe"
)

func ms(v int64) *int64 { return &v }

func TestResultRows(t *testing.T) {
	at := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	results := []probe.Result{
		{
			Candidate: candidate.Candidate{Address: "1.2.3.4", Port: 8080},
			CheckedAt: at,
			Outcomes: []probe.Outcome{
				{Target: "google", StatusCode: 200, LatencyMs: ms(300)},
				{Target: "facebook", StatusCode: 200, LatencyMs: ms(150)},
			},
		},
		{
			Candidate: candidate.Candidate{Address: "5.6.7.8", Port: 3128},
			CheckedAt: at,
			Outcomes: []probe.Outcome{
				{Target: "google", StatusCode: 503, Error: probe.TagConnection},
			},
		},
	}

	rows, err := resultRows("run-7", results)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}

	first := rows[0]
	if first.RunID != "run-7" || first.Rank != 1 || first.IP != "1.2.3.4" || first.Port != 8080 || first.Successes != 2 {
		t.Errorf("first row = %+v", first)
	}
	if first.BestLatencyMs == nil || *first.BestLatencyMs != 150 {
		t.Errorf("best latency = %v, want 150", first.BestLatencyMs)
	}
	var outcomes []probe.Outcome
	if err := json.Unmarshal(first.Outcomes, &outcomes); err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 2 || outcomes[1].Target != "facebook" {
		t.Errorf("outcomes = %+v", outcomes)
	}

	second := rows[1]
	if second.Rank != 2 || second.Successes != 0 || second.BestLatencyMs != nil {
		t.Errorf("second row = %+v", second)
	}
}

func TestNewRun(t *testing.T) {
	at := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	report := output.NewReport("run-1", at, nil)
	run := newRun(report, output.Stats{Candidates: 10, Resumed: 2, Alive: 3, Filtered: 1, Duration: 1500 * time.Millisecond})

	if run.ID != "run-1" || run.Version != output.ReportVersion || !run.GeneratedAt.Equal(at) {
		t.Errorf("run = %+v", run)
	}
	if run.Candidates != 12 || run.Alive != 3 || run.Filtered != 1 || run.DurationMs != 1500 {
		t.Errorf("counts = %+v", run)
	}
}

func TestRunIDIndexQuery(t *testing.T) {
	// sql.OpenDB connects lazily, so no server is needed to render SQL.
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	defer db.Close()

	b, err := runIDIndexQuery(db).AppendQuery(db.Formatter(), nil)
	if err != nil {
		t.Fatal(err)
	}
	query := string(b)
	for _, want := range []string{
		"CREATE INDEX",
		`IF NOT EXISTS "probe_results_run_id_idx"`,
		`"probe_results"`,
		`("run_id")`,
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}
