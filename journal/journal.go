// Package journal keeps an sqlite log of every command the session ran,
// with its provenance and outcome.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the database created inside the config directory
const FileName = "journal.db"

// Provenance tells where a command's text came from
type Provenance string

const (
	ProvenanceUser       Provenance = "user"
	ProvenanceSuggestion Provenance = "suggestion"
)

// Entry is one executed command
type Entry struct {
	ID          int64
	SessionID   string
	Command     string
	Dir         string
	Provenance  Provenance
	ExitCode    int
	Signal      string
	Interrupted bool
	Duration    time.Duration
	StartedAt   time.Time
}

// Journal is the sqlite-backed store
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=2000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initializeSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			command TEXT NOT NULL,
			directory TEXT NOT NULL,
			provenance TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			signal TEXT NOT NULL DEFAULT '',
			interrupted INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL,
			started_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(`CREATE INDEX IF NOT EXISTS idx_executions_directory ON executions(directory, started_at)`)
	return err
}

// Record appends e
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO executions
			(session_id, command, directory, provenance, exit_code, signal, interrupted, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Command, e.Dir, string(e.Provenance), e.ExitCode, e.Signal,
		e.Interrupted, e.Duration.Milliseconds(), e.StartedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("recording execution: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty dir matches
// every directory.
func (j *Journal) Recent(ctx context.Context, dir string, limit int) ([]Entry, error) {
	query := `SELECT id, session_id, command, directory, provenance, exit_code, signal, interrupted, duration_ms, started_at
		FROM executions`
	args := []interface{}{}
	if dir != "" {
		query += ` WHERE directory = ?`
		args = append(args, dir)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var provenance string
		var durationMS, startedMS int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Command, &e.Dir, &provenance, &e.ExitCode,
			&e.Signal, &e.Interrupted, &durationMS, &startedMS); err != nil {
			return nil, err
		}
		e.Provenance = Provenance(provenance)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.StartedAt = time.UnixMilli(startedMS)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}
