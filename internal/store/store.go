// Package store persists reports to PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/maxvaer/proxycheck/internal/output"
	"github.com/maxvaer/proxycheck/internal/probe"
)

type DB struct {
	*bun.DB
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{db}, nil
}

// RunIDIndex speeds up loading the results of one run.
const RunIDIndex = "probe_results_run_id_idx"

// InitSchema creates the tables and indexes if they don't exist. The
// probe_results foreign key comes from the ProbeResultRow.Run relation.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, model := range []any{(*ProbeRun)(nil), (*ProbeResultRow)(nil)} {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	if _, err := runIDIndexQuery(db.DB).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func runIDIndexQuery(db *bun.DB) *bun.CreateIndexQuery {
	return db.NewCreateIndex().
		Model((*ProbeResultRow)(nil)).
		Index(RunIDIndex).
		IfNotExists().
		Column("run_id")
}

// SaveReport writes the run and every ranked result in one transaction.
func (db *DB) SaveReport(ctx context.Context, report output.Report, stats output.Stats) error {
	run := newRun(report, stats)
	rows, err := resultRows(report.RunID, report.Proxies)
	if err != nil {
		return err
	}

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(run).Exec(ctx); err != nil {
			return fmt.Errorf("error inserting run: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("error inserting results: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("Report stored", "run_id", report.RunID, "results", len(rows))
	return nil
}

// LatestAlive returns the best-ranked results of the most recent run that
// had at least min successes.
func (db *DB) LatestAlive(ctx context.Context, min int) ([]ProbeResultRow, error) {
	var run ProbeRun
	err := db.NewSelect().Model(&run).Order("generated_at DESC").Limit(1).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting latest run: %w", err)
	}

	var rows []ProbeResultRow
	err = db.NewSelect().
		Model(&rows).
		Where("run_id = ?", run.ID).
		Where("successes >= ?", min).
		Order("rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting results: %w", err)
	}
	return rows, nil
}

func newRun(report output.Report, stats output.Stats) *ProbeRun {
	return &ProbeRun{
		ID:          report.RunID,
		Version:     output.ReportVersion,
		GeneratedAt: report.GeneratedAt,
		Candidates:  stats.Candidates + stats.Resumed,
		Alive:       stats.Alive,
		Filtered:    stats.Filtered,
		DurationMs:  stats.Duration.Milliseconds(),
	}
}

func resultRows(runID string, results []probe.Result) ([]ProbeResultRow, error) {
	rows := make([]ProbeResultRow, 0, len(results))
	for i, r := range results {
		outcomes, err := json.Marshal(r.Outcomes)
		if err != nil {
			return nil, fmt.Errorf("encoding outcomes for %s: %w", r.Candidate, err)
		}
		row := ProbeResultRow{
			RunID:     runID,
			Rank:      i + 1,
			IP:        r.Candidate.Address,
			Port:      r.Candidate.Port,
			Successes: r.Successes(),
			CheckedAt: r.CheckedAt,
			Outcomes:  outcomes,
		}
		if best, ok := r.BestLatency(); ok {
			v := best.Milliseconds()
			row.BestLatencyMs = &v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
