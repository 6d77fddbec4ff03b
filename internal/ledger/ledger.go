// Package ledger persists scheduler runs in a local SQLite database so
// past runs can be audited and compared. Each run row records the model
// and outcome; each step row records one time-step's fired mechanisms.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// ErrRunNotFound is returned when a run ID has no row in the ledger.
var ErrRunNotFound = errors.New("run not found in ledger")

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS
// makes it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    network     TEXT NOT NULL,
    model_file  TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'running',
    time_steps  INTEGER NOT NULL DEFAULT 0,
    started_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS steps (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES runs(id),
    seq    INTEGER NOT NULL,
    fired  TEXT NOT NULL,
    UNIQUE(run_id, seq)
);
`

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         int64
	Network    string
	ModelFile  string
	Status     string
	TimeSteps  int
	StartedAt  time.Time
	FinishedAt time.Time // zero if the run never finished
}

// StepRecord is one time-step of a recorded run.
type StepRecord struct {
	Seq   int
	Fired []string
}

// Store is a SQLite-backed run ledger.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at dbPath, enables WAL mode
// and busy timeout, and creates the schema tables if they do not exist.
// Missing parent directories are created, so the default dot-directory
// path works in a fresh working directory.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	// Limit to one connection. SQLite only supports a single writer;
	// one connection avoids SQLITE_BUSY contention between pooled
	// connections that each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// BeginRun inserts a new run row in the running state and returns its ID.
func (s *Store) BeginRun(ctx context.Context, network, modelFile string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (network, model_file) VALUES (?, ?)", network, modelFile)
	if err != nil {
		return 0, fmt.Errorf("ledger: begin run for %q: %w", network, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ledger: begin run id: %w", err)
	}
	return id, nil
}

// RecordStep appends one time-step's fired mechanisms to a run.
func (s *Store) RecordStep(ctx context.Context, runID int64, seq int, fired []string) error {
	data, err := json.Marshal(fired)
	if err != nil {
		return fmt.Errorf("ledger: encode fired set: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO steps (run_id, seq, fired) VALUES (?, ?, ?)", runID, seq, data); err != nil {
		return fmt.Errorf("ledger: record step %d of run %d: %w", seq, runID, err)
	}
	return nil
}

// FinishRun marks a run finished with the given status and step count.
func (s *Store) FinishRun(ctx context.Context, runID int64, status string, timeSteps int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, time_steps = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, timeSteps, runID)
	if err != nil {
		return fmt.Errorf("ledger: finish run %d: %w", runID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: finish run rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT id, network, model_file, status, time_steps, started_at, finished_at
		FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query runs: %w", err)
	}
	defer rows.Close()

	var result []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Network, &r.ModelFile, &r.Status, &r.TimeSteps, &started, &finished); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		r.StartedAt, err = parseTimestamp(started)
		if err != nil {
			return nil, fmt.Errorf("ledger: parse run timestamp: %w", err)
		}
		if finished.Valid {
			r.FinishedAt, err = parseTimestamp(finished.String)
			if err != nil {
				return nil, fmt.Errorf("ledger: parse run timestamp: %w", err)
			}
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate runs: %w", err)
	}
	return result, nil
}

// Steps returns the recorded time-steps of a run in sequence order.
func (s *Store) Steps(ctx context.Context, runID int64) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, fired FROM steps WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: query steps of run %d: %w", runID, err)
	}
	defer rows.Close()

	var result []StepRecord
	for rows.Next() {
		var step StepRecord
		var fired []byte
		if err := rows.Scan(&step.Seq, &fired); err != nil {
			return nil, fmt.Errorf("ledger: scan step: %w", err)
		}
		if err := json.Unmarshal(fired, &step.Fired); err != nil {
			return nil, fmt.Errorf("ledger: decode fired set: %w", err)
		}
		result = append(result, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate steps: %w", err)
	}
	return result, nil
}

// timestampFormats lists the formats SQLite drivers may produce for
// CURRENT_TIMESTAMP. modernc.org/sqlite typically returns RFC 3339,
// while canonical SQLite returns the space-separated DateTime format.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

// parseTimestamp attempts to parse a SQLite timestamp string using known formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
