// Package store persists compiled verb programs in SQLite, keyed by owning
// object and verb name. Programs are stored in their wire form, so anything
// that can decode the wire format can share a database with the compiler.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/moorhen-dev/moorhen/pkg/program"
	"github.com/moorhen-dev/moorhen/pkg/value"
)

// ErrNotFound indicates the requested verb has no stored program.
var ErrNotFound = errors.New("store: verb not found")

// VerbID names one stored program.
type VerbID struct {
	Obj  value.Objid
	Verb string
}

func (v VerbID) String() string {
	return fmt.Sprintf("#%d:%s", v.Obj, v.Verb)
}

// Store is a SQLite-backed verb program store.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates a store at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	// Concurrent embedders share the file; wait out short write locks.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS verbs (
		obj INTEGER NOT NULL,
		verb TEXT NOT NULL,
		program BLOB NOT NULL,
		PRIMARY KEY (obj, verb)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores a compiled program for a verb, replacing any previous one.
func (s *Store) Put(id VerbID, p *program.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := program.Encode(p)
	if err != nil {
		return fmt.Errorf("store: encoding %s: %w", id, err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO verbs (obj, verb, program) VALUES (?, ?, ?)",
		int64(id.Obj), id.Verb, data,
	)
	if err != nil {
		return fmt.Errorf("store: saving %s: %w", id, err)
	}
	return nil
}

// Get loads the stored program for a verb.
func (s *Store) Get(id VerbID) (*program.Program, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT program FROM verbs WHERE obj = ? AND verb = ?",
		int64(id.Obj), id.Verb,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: querying %s: %w", id, err)
	}
	p, err := program.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("store: loading %s: %w", id, err)
	}
	return p, nil
}

// Delete removes the stored program for a verb, if any.
func (s *Store) Delete(id VerbID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"DELETE FROM verbs WHERE obj = ? AND verb = ?",
		int64(id.Obj), id.Verb,
	)
	if err != nil {
		return fmt.Errorf("store: deleting %s: %w", id, err)
	}
	return nil
}

// List returns the ids of all stored programs, ordered by object then verb.
func (s *Store) List() ([]VerbID, error) {
	rows, err := s.db.Query("SELECT obj, verb FROM verbs ORDER BY obj, verb")
	if err != nil {
		return nil, fmt.Errorf("store: listing verbs: %w", err)
	}
	defer rows.Close()

	var ids []VerbID
	for rows.Next() {
		var obj int64
		var verb string
		if err := rows.Scan(&obj, &verb); err != nil {
			return nil, fmt.Errorf("store: scanning verb id: %w", err)
		}
		ids = append(ids, VerbID{Obj: value.Objid(obj), Verb: verb})
	}
	return ids, rows.Err()
}

// ListObj returns the verb names stored for one object, in name order.
func (s *Store) ListObj(obj value.Objid) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT verb FROM verbs WHERE obj = ? ORDER BY verb",
		int64(obj),
	)
	if err != nil {
		return nil, fmt.Errorf("store: listing verbs for #%d: %w", obj, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var verb string
		if err := rows.Scan(&verb); err != nil {
			return nil, fmt.Errorf("store: scanning verb name: %w", err)
		}
		names = append(names, verb)
	}
	return names, rows.Err()
}
