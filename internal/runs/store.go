package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store records run sessions and their end-of-run summaries in SQLite.
//
// The registry is observational: the ledger and sink files on disk remain the
// durable source of truth for resumption. The store exists so the CLI can list
// prior sessions and point recovery at the right artifacts.
type Store struct {
	db   *sql.DB
	path string
}

// Row is one registry entry.
type Row struct {
	ID         string
	Domain     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Skipped    int
	Succeeded  int
	Failed     int
	SinkPath   string
	LedgerPath string
}

const schema = `
CREATE TABLE IF NOT EXISTS run_sessions (
    id          TEXT PRIMARY KEY,
    domain      TEXT NOT NULL,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    skipped     INTEGER NOT NULL DEFAULT 0,
    succeeded   INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    sink_path   TEXT NOT NULL,
    ledger_path TEXT NOT NULL
)`

// OpenStore initializes or connects to the session registry inside dir.
func OpenStore(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin registers a session at run start. Re-registering a resumed session is
// an upsert so resume attempts do not error.
func (s *Store) Begin(ctx context.Context, session Session, sinkPath, ledgerPath string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_sessions (id, domain, started_at, sink_path, ledger_path)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET sink_path = excluded.sink_path, ledger_path = excluded.ledger_path`,
		session.ID(),
		session.Domain,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		sinkPath,
		ledgerPath,
	)
	if err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

// Finish records the end-of-run summary for a session.
func (s *Store) Finish(ctx context.Context, sessionID string, skipped, succeeded, failed int) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE run_sessions
         SET finished_at = ?, skipped = ?, succeeded = ?, failed = ?
         WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		skipped,
		succeeded,
		failed,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish session: unknown session %q", sessionID)
	}
	return nil
}

// GetByID fetches a registry row.
func (s *Store) GetByID(ctx context.Context, id string) (*Row, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rowColumns+` FROM run_sessions WHERE id = ?`, id)
	entry, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return entry, nil
}

// List returns sessions ordered newest first, optionally filtered by domain.
func (s *Store) List(ctx context.Context, domain string) ([]*Row, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if domain == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+rowColumns+` FROM run_sessions ORDER BY started_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+rowColumns+` FROM run_sessions WHERE domain = ? ORDER BY started_at DESC`, domain)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var entries []*Row
	for rows.Next() {
		entry, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

const rowColumns = "id, domain, started_at, finished_at, skipped, succeeded, failed, sink_path, ledger_path"

func scanRow(scanner interface{ Scan(dest ...any) error }) (*Row, error) {
	var (
		entry       Row
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Domain,
		&startedRaw,
		&finishedRaw,
		&entry.Skipped,
		&entry.Succeeded,
		&entry.Failed,
		&entry.SinkPath,
		&entry.LedgerPath,
	); err != nil {
		return nil, err
	}
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		entry.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			entry.FinishedAt = &finished
		}
	}
	return &entry, nil
}
