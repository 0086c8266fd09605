// Package audit persists the diagnostic events of a linkage run so that
// decisions can be reviewed after the CSV outputs have been handed over.
package audit

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/censo-link/internal/db"
	"github.com/censo-link/internal/debug"
	"github.com/censo-link/internal/diag"
)

// Tracker is a diag.Sink that buffers the events of one run and writes them
// in a single transaction when the run finishes.
type Tracker struct {
	conn      *db.Connection
	log       *zap.SugaredLogger
	runID     string
	startedAt time.Time

	mu     sync.Mutex
	events []diag.Event
}

// NewTracker creates a new audit tracker for runID.
func NewTracker(conn *db.Connection, runID string, log *zap.SugaredLogger) *Tracker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Tracker{conn: conn, log: log, runID: runID, startedAt: time.Now().UTC()}
}

// EnsureSchema creates the audit tables when missing.
func (t *Tracker) EnsureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS link_run (
			run_id      TEXT PRIMARY KEY,
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			status      TEXT NOT NULL,
			event_count INTEGER NOT NULL,
			params_json TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS link_event (
			run_id      TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			stage       TEXT,
			base_table  TEXT,
			other_table TEXT,
			kind        TEXT NOT NULL,
			severity    TEXT NOT NULL,
			message     TEXT,
			base_row    INTEGER,
			base_id     TEXT,
			base_name   TEXT,
			other_id    TEXT,
			other_name  TEXT,
			score       INTEGER,
			PRIMARY KEY (run_id, seq)
		)`,
	}
	for _, s := range stmts {
		if _, err := t.conn.DB.Exec(s); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	return nil
}

// Emit buffers e.
func (t *Tracker) Emit(e diag.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

// Pending returns the number of buffered events.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

// Finish writes the run row and every buffered event. params is stored as
// JSON for later comparison of runs.
func (t *Tracker) Finish(localDebug bool, status string, params interface{}) error {
	defer debug.DebugTiming(t.log, localDebug, "audit flush")()

	t.mu.Lock()
	events := t.events
	t.events = nil
	t.mu.Unlock()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode run parameters: %w", err)
	}

	tx, err := t.conn.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d := t.conn.Dialect
	_, err = tx.Exec(`INSERT INTO link_run (run_id, started_at, finished_at, status, event_count, params_json)
		VALUES (`+d.Placeholders(6)+`)`,
		t.runID, t.startedAt.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
		status, len(events), string(paramsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert link_run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO link_event (run_id, seq, stage, base_table, other_table, kind, severity,
		message, base_row, base_id, base_name, other_id, other_name, score)
		VALUES (` + d.Placeholders(14) + `)`)
	if err != nil {
		return fmt.Errorf("failed to prepare link_event insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		var score interface{}
		if e.HasScore {
			score = e.Score
		}
		_, err := stmt.Exec(t.runID, i+1, e.Stage, e.BaseTable, e.OtherTable, string(e.Kind), e.Severity.String(),
			e.Message, e.Row, e.BaseID, e.BaseName, e.OtherID, e.OtherName, score)
		if err != nil {
			return fmt.Errorf("failed to insert event %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit trail: %w", err)
	}

	debug.DebugOutput(t.log, localDebug, "Recorded %d events for run %s", len(events), t.runID)
	return nil
}

// RunStatistics counts the stored events of a run by kind.
func (t *Tracker) RunStatistics(runID string) (map[diag.Kind]int, error) {
	rows, err := t.conn.DB.Query(`SELECT kind, COUNT(*) FROM link_event WHERE run_id = `+
		t.conn.Dialect.Placeholder(1)+` GROUP BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run statistics: %w", err)
	}
	defer rows.Close()

	stats := make(map[diag.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan run statistics: %w", err)
		}
		stats[diag.Kind(kind)] = n
	}
	return stats, rows.Err()
}
