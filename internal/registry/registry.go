// Package registry persists the supervisor's run records in SQLite.
//
// The record is a durable cache of the supervisor's in-memory handle, not
// the primary truth: it lets a later invocation (or a restarted
// supervisor) recover the pid, launch id and session name of a daemon it
// did not spawn itself. Records are reconciled against the live system at
// supervisor construction.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/svcsup/internal/sentinel"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// ErrNoRecord is returned by Get when no record exists for the name.
const ErrNoRecord = sentinel.Error("no run record for service")

// Record is the persisted state of one named service. Name is unique
// across all records. Session is empty unless the service was launched
// in interactive mode. UpdatedAt is stored in UTC.
type Record struct {
	Name      string
	LaunchID  string
	PID       int
	State     string
	Session   string
	UpdatedAt time.Time
}

// Registry is a SQLite-backed store of run records. Safe for concurrent
// use; database/sql serializes access over a single connection.
type Registry struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	name       TEXT PRIMARY KEY,
	launch_id  TEXT NOT NULL,
	pid        INTEGER NOT NULL,
	state      TEXT NOT NULL,
	session    TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);`

// Open opens (creating if necessary) the registry database at path and
// ensures the schema exists.
func Open(ctx context.Context, path string) (*Registry, error) {
	if path == "" {
		return nil, errors.New("registry path must not be empty")
	}
	// WAL with a busy timeout tolerates a concurrent CLI invocation
	// holding the database briefly; NORMAL synchronous is sufficient for
	// a record that is reconciled against the live system anyway.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	// Short-lived sessions, not a pool.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Put inserts or replaces the record for rec.Name. UpdatedAt is set to
// the current time in UTC; the caller's value is ignored.
func (r *Registry) Put(ctx context.Context, rec Record) error {
	if rec.Name == "" {
		return errors.New("record name must not be empty")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (name, launch_id, pid, state, session, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			launch_id  = excluded.launch_id,
			pid        = excluded.pid,
			state      = excluded.state,
			session    = excluded.session,
			updated_at = excluded.updated_at`,
		rec.Name, rec.LaunchID, rec.PID, rec.State, rec.Session,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put run record %s: %w", rec.Name, err)
	}
	return nil
}

// Get returns the record for name, or ErrNoRecord.
func (r *Registry) Get(ctx context.Context, name string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, launch_id, pid, state, session, updated_at
		FROM runs WHERE name = ?`, name)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("%s: %w", name, ErrNoRecord)
		}
		return Record{}, fmt.Errorf("get run record %s: %w", name, err)
	}
	return rec, nil
}

// List returns all records ordered by name.
func (r *Registry) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, launch_id, pid, state, session, updated_at
		FROM runs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	return recs, nil
}

// Delete removes the record for name. Deleting a missing record is not
// an error; the stop path calls this unconditionally.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete run record %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// scanRecord reads one row via the given scan function and parses the
// stored UTC timestamp.
func scanRecord(scan func(...any) error) (Record, error) {
	var rec Record
	var updated string
	if err := scan(&rec.Name, &rec.LaunchID, &rec.PID, &rec.State, &rec.Session, &updated); err != nil {
		return Record{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return Record{}, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	rec.UpdatedAt = ts
	return rec, nil
}
