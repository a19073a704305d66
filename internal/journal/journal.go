// Package journal persists a durable audit trail of each run to SQLite.
// It is write-only from the controller's perspective: runs are never
// resumed from it.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mattjoyce/redistq/internal/log"
)

// Open opens (and creates if needed) the SQLite database at path and ensures
// required tables exist.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS run (
  id          TEXT PRIMARY KEY,
  site_code   TEXT NOT NULL,
  items       INTEGER NOT NULL,
  started_at  TEXT NOT NULL,
  finished_at TEXT,
  dispatched  INTEGER NOT NULL DEFAULT 0,
  skipped     INTEGER NOT NULL DEFAULT 0,
  ticks       INTEGER NOT NULL DEFAULT 0,
  outcome     TEXT
);`,
		`CREATE TABLE IF NOT EXISTS run_event (
  id         TEXT PRIMARY KEY,
  run_id     TEXT NOT NULL REFERENCES run(id),
  type       TEXT NOT NULL,
  at         TEXT NOT NULL,
  data       JSON
);`,
		`CREATE INDEX IF NOT EXISTS idx_run_event_run ON run_event(run_id, at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap journal: %w", err)
		}
	}
	return nil
}

// Recorder journals the events of a single run. It satisfies the
// controller's Sink interface.
type Recorder struct {
	db     *sql.DB
	runID  string
	logger *slog.Logger
}

// NewRecorder inserts a run row and returns a Recorder scoped to it.
func NewRecorder(ctx context.Context, db *sql.DB, siteCode string, items int, startedAt time.Time) (*Recorder, error) {
	runID := uuid.NewString()
	_, err := db.ExecContext(ctx, `
INSERT INTO run(id, site_code, items, started_at) VALUES(?, ?, ?, ?);
`, runID, siteCode, items, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Recorder{
		db:     db,
		runID:  runID,
		logger: log.WithComponent("journal"),
	}, nil
}

// RunID returns the journal identifier of this run.
func (r *Recorder) RunID() string { return r.runID }

// Record appends one event row. Journal failures are logged and swallowed:
// the audit trail must never stop the batch.
func (r *Recorder) Record(ctx context.Context, eventType string, data map[string]any) {
	var payload any
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			payload = string(b)
		}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO run_event(id, run_id, type, at, data) VALUES(?, ?, ?, ?, ?);
`, uuid.NewString(), r.runID, eventType, time.Now().UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		r.logger.Error("failed to journal event", "type", eventType, "error", err)
	}
}

// Finish stamps the run row with its outcome and final counters.
func (r *Recorder) Finish(ctx context.Context, outcome string, dispatched, skipped, ticks int) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE run SET finished_at = ?, outcome = ?, dispatched = ?, skipped = ?, ticks = ? WHERE id = ?;
`, time.Now().UTC().Format(time.RFC3339Nano), outcome, dispatched, skipped, ticks, r.runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
