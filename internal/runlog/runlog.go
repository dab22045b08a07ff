// Package runlog journals ETL runs in a local SQLite file so operators
// can see what ran, for which client, and with what outcome, without
// touching the warehouse.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Run is one journal entry.
type Run struct {
	ID         string
	ClientSlug string
	Stage      string
	Status     string
	Rows       int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Log writes run entries to SQLite.
type Log struct {
	db *sql.DB
}

// Open opens the journal at path and configures WAL mode.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Log{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS etl_runs (
	id          TEXT PRIMARY KEY,
	client_slug TEXT NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	rows        INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_etl_runs_client ON etl_runs(client_slug, started_at);
CREATE INDEX IF NOT EXISTS idx_etl_runs_status ON etl_runs(status);
`

func (l *Log) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a stage and returns the run id.
func (l *Log) Start(ctx context.Context, clientSlug, stage string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO etl_runs (id, client_slug, stage, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, clientSlug, stage, StatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start %s/%s", clientSlug, stage)
	}
	return id, nil
}

// Finish marks a run complete or failed. A nil runErr means success;
// rows is how many rows the stage produced.
func (l *Log) Finish(ctx context.Context, id string, rows int, runErr error) error {
	status := StatusComplete
	msg := ""
	if runErr != nil {
		status = StatusFailed
		msg = runErr.Error()
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE etl_runs SET status = ?, rows = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, rows, msg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: finish %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "runlog: rows affected")
	}
	if n == 0 {
		return eris.Errorf("runlog: run not found: %s", id)
	}
	return nil
}

// Recent returns the latest entries for a client, newest first.
func (l *Log) Recent(ctx context.Context, clientSlug string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, client_slug, stage, status, rows, error, started_at, finished_at
		 FROM etl_runs WHERE client_slug = ?
		 ORDER BY started_at DESC LIMIT ?`,
		clientSlug, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: recent")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.ClientSlug, &r.Stage, &r.Status, &r.Rows, &r.Error, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "runlog: recent iterate")
}
