// Package store handles SQLite persistence of decoded observations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/passdown/internal/layout"
	"github.com/verte-zerg/passdown/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Timestamps are stored in UTC with a fixed width so they order as text.
const timeFormat = "2006-01-02 15:04:05"

// Store wraps SQLite access for observation history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			id INTEGER PRIMARY KEY,
			status_path TEXT NOT NULL UNIQUE,
			gauge_path TEXT NOT NULL,
			ts TEXT NOT NULL,
			sort_id TEXT NOT NULL,
			shift TEXT NOT NULL,
			weekday INTEGER NOT NULL,
			volume INTEGER NOT NULL,
			op_reject INTEGER NOT NULL,
			iss_reject INTEGER NOT NULL,
			scan_tunnel_reject INTEGER NOT NULL,
			mechanical_reject INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS observation_counters (
			observation_id INTEGER NOT NULL,
			counter TEXT NOT NULL,
			category TEXT NOT NULL,
			ss1 INTEGER NOT NULL,
			ss2 INTEGER NOT NULL,
			total INTEGER NOT NULL,
			PRIMARY KEY (observation_id, counter)
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			pattern TEXT NOT NULL,
			decoded INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_observations_ts ON observations(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_observation_counters_counter ON observation_counters(counter);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveObservations stores observations and their per-counter values. An
// observation already stored for the same status report is replaced.
func (s *Store) SaveObservations(ctx context.Context, l layout.Layout, observations []model.Observation) (err error) {
	if len(observations) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	delCounters, err := tx.PrepareContext(ctx,
		`DELETE FROM observation_counters
		 WHERE observation_id IN (SELECT id FROM observations WHERE status_path = ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(delCounters)
	del, err := tx.PrepareContext(ctx, `DELETE FROM observations WHERE status_path = ?`)
	if err != nil {
		return err
	}
	defer closeStmt(del)
	ins, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (status_path, gauge_path, ts, sort_id, shift, weekday, volume,
			op_reject, iss_reject, scan_tunnel_reject, mechanical_reject)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(ins)
	insCounter, err := tx.PrepareContext(ctx,
		`INSERT INTO observation_counters (observation_id, counter, category, ss1, ss2, total)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(insCounter)

	for _, o := range observations {
		if _, err = delCounters.ExecContext(ctx, o.StatusPath); err != nil {
			return err
		}
		if _, err = del.ExecContext(ctx, o.StatusPath); err != nil {
			return err
		}
		var res sql.Result
		res, err = ins.ExecContext(ctx,
			o.StatusPath,
			o.GaugePath,
			o.Timestamp.UTC().Format(timeFormat),
			o.SortID,
			string(o.Shift),
			int(o.Weekday),
			o.Volume,
			o.Reject(model.CategoryOperational),
			o.Reject(model.CategoryISS),
			o.Reject(model.CategoryScanTunnel),
			o.Reject(model.CategoryMechanical),
		)
		if err != nil {
			return err
		}
		var id int64
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for _, c := range l.Counters {
			v, ok := o.Counters[c.Name]
			if !ok {
				continue
			}
			if _, err = insCounter.ExecContext(ctx, id, c.Name, string(c.Category), v.SS1, v.SS2, v.Total); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ListObservations returns observation aggregates filtered by stats config,
// ordered by timestamp.
func (s *Store) ListObservations(ctx context.Context, cfg model.StatsConfig) ([]model.ObservationAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Shift != model.ShiftUnknown {
		clauses = append(clauses, "shift = ?")
		args = append(args, string(cfg.Shift))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ts >= ?")
		args = append(args, cfg.Since.UTC().Format(timeFormat))
	}
	query := fmt.Sprintf(`SELECT id, ts, sort_id, shift, weekday, volume,
			op_reject, iss_reject, scan_tunnel_reject, mechanical_reject
		FROM observations
		WHERE %s
		ORDER BY ts ASC, status_path ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.ObservationAggregate
	for rows.Next() {
		var agg model.ObservationAggregate
		var ts, shift string
		var weekday, op, iss, scan, mech int
		if err := rows.Scan(&agg.ObservationID, &ts, &agg.SortID, &shift, &weekday, &agg.Volume,
			&op, &iss, &scan, &mech); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeFormat, ts)
		if err != nil {
			return nil, err
		}
		agg.Timestamp = parsed
		agg.Shift = model.Shift(shift)
		agg.Weekday = time.Weekday(weekday)
		agg.Rejects = map[model.Category]int{
			model.CategoryOperational: op,
			model.CategoryISS:         iss,
			model.CategoryScanTunnel:  scan,
			model.CategoryMechanical:  mech,
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListCounterAggregates sums counters across observations.
func (s *Store) ListCounterAggregates(ctx context.Context, observationIDs []int64) ([]model.CounterAggregate, error) {
	if len(observationIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(observationIDs)
	query := fmt.Sprintf(`SELECT counter, category, SUM(ss1), SUM(ss2), SUM(total)
		FROM observation_counters
		WHERE observation_id IN (%s)
		GROUP BY counter, category
		ORDER BY counter`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.CounterAggregate
	for rows.Next() {
		var agg model.CounterAggregate
		var category string
		if err := rows.Scan(&agg.Counter, &category, &agg.SS1, &agg.SS2, &agg.Total); err != nil {
			return nil, err
		}
		agg.Category = model.Category(category)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListCounterValues returns per-observation values for selected counters.
func (s *Store) ListCounterValues(ctx context.Context, observationIDs []int64, counters []string) (map[int64]map[string]model.CounterValue, error) {
	if len(observationIDs) == 0 || len(counters) == 0 {
		return map[int64]map[string]model.CounterValue{}, nil
	}
	idPlaceholders, args := inClause(observationIDs)
	counterPlaceholders := make([]string, len(counters))
	for i, name := range counters {
		counterPlaceholders[i] = "?"
		args = append(args, name)
	}
	query := fmt.Sprintf(`SELECT observation_id, counter, ss1, ss2, total
		FROM observation_counters
		WHERE observation_id IN (%s) AND counter IN (%s)`, idPlaceholders, strings.Join(counterPlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	result := map[int64]map[string]model.CounterValue{}
	for rows.Next() {
		var id int64
		var name string
		var v model.CounterValue
		if err := rows.Scan(&id, &name, &v.SS1, &v.SS2, &v.Total); err != nil {
			return nil, err
		}
		if _, ok := result[id]; !ok {
			result[id] = map[string]model.CounterValue{}
		}
		result[id][name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertRun records a dataset build.
func (s *Store) InsertRun(ctx context.Context, run model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, pattern, decoded, skipped)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeFormat),
		run.FinishedAt.UTC().Format(timeFormat),
		run.Pattern,
		run.Decoded,
		run.Skipped,
	)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, pattern, decoded, skipped
		 FROM runs
		 ORDER BY started_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Pattern, &run.Decoded, &run.Skipped); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(timeFormat, started); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = time.Parse(timeFormat, finished); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}
