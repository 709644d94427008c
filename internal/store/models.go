package store

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// ProbeRun is one proxycheck invocation.
type ProbeRun struct {
	bun.BaseModel `bun:"table:probe_runs,alias:pr"`

	ID          string    `bun:",pk"`
	Version     string    `bun:",notnull"`
	GeneratedAt time.Time `bun:",notnull"`
	Candidates  int       `bun:",notnull"`
	Alive       int       `bun:",notnull"`
	Filtered    int       `bun:",notnull"`
	DurationMs  int64     `bun:",notnull"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// ProbeResultRow is one ranked candidate of a run. Outcomes keeps the
// per-target detail as reported.
type ProbeResultRow struct {
	bun.BaseModel `bun:"table:probe_results,alias:res"`

	ID            int64           `bun:",pk,autoincrement"`
	RunID         string          `bun:",notnull"`
	Rank          int             `bun:",notnull"`
	IP            string          `bun:",notnull"`
	Port          int             `bun:",notnull"`
	Successes     int             `bun:",notnull"`
	BestLatencyMs *int64          `bun:",nullzero"`
	CheckedAt     time.Time       `bun:",notnull"`
	Outcomes      json.RawMessage `bun:",type:jsonb"`

	Run *ProbeRun `bun:"rel:belongs-to,join:run_id=id"`
}
