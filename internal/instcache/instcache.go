// Package instcache persists the Template Registry's instantiation cache
// across compiler invocations, keyed by (template name, argument
// fingerprint) exactly as internal/templates.Registry keys its in-memory
// cache (spec §4.5's instantiation cache). The stored rows are an audit
// record of what earlier runs instantiated: nothing reads them back to
// skip work, so a second run over an unchanged header redoes the same
// instantiations.
//
// Grounded on the teacher's internal/evaluator/builtins_sql.go: the
// *sql.DB-wrapping handle type and blank-importing modernc.org/sqlite
// for its driver side effect are kept as-is; the ad hoc SqlDB/SqlTx
// runtime-value wrappers are replaced with a small typed Store since this
// package has exactly one schema and one access pattern, not a
// general-purpose SQL builtin surface.
package instcache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed persistent instantiation cache.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS instantiations (
	template_name TEXT NOT NULL,
	fingerprint   TEXT NOT NULL,
	progress      INTEGER NOT NULL,
	mangled_name  TEXT NOT NULL,
	PRIMARY KEY (template_name, fingerprint)
);
`

// Open creates (or reuses) a SQLite database at path and ensures the
// instantiations table exists. Passing ":memory:" gives a scratch store
// scoped to one process, useful for tests and one-shot invocations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("instcache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("instcache: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Entry is one persisted instantiation record.
type Entry struct {
	TemplateName string
	Fingerprint  string
	Progress     int
	MangledName  string
}

// Get retrieves a previously persisted instantiation, if present.
func (s *Store) Get(templateName, fingerprint string) (Entry, bool, error) {
	row := s.db.QueryRow(
		`SELECT progress, mangled_name FROM instantiations WHERE template_name = ? AND fingerprint = ?`,
		templateName, fingerprint,
	)
	var e Entry
	e.TemplateName = templateName
	e.Fingerprint = fingerprint
	switch err := row.Scan(&e.Progress, &e.MangledName); err {
	case nil:
		return e, true, nil
	case sql.ErrNoRows:
		return Entry{}, false, nil
	default:
		return Entry{}, false, fmt.Errorf("instcache: get %s/%s: %w", templateName, fingerprint, err)
	}
}

// Put persists (or updates) one instantiation record.
func (s *Store) Put(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO instantiations(template_name, fingerprint, progress, mangled_name)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(template_name, fingerprint) DO UPDATE SET
		   progress = excluded.progress, mangled_name = excluded.mangled_name
		   WHERE excluded.progress > instantiations.progress`,
		e.TemplateName, e.Fingerprint, e.Progress, e.MangledName,
	)
	if err != nil {
		return fmt.Errorf("instcache: put %s/%s: %w", e.TemplateName, e.Fingerprint, err)
	}
	return nil
}

// Count reports how many instantiation records are currently persisted,
// mainly for diagnostics/tests.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM instantiations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("instcache: count: %w", err)
	}
	return n, nil
}
