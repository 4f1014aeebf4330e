package store

import (
	"database/sql"
	"sync"
)

// Scope is a place cells persist to. Two implementations exist: the durable
// sqlite scope (survives restarts) and the session scope (cleared at exit).
// Which one a given cell uses can change at runtime, see Cell.Rebind.
type Scope interface {
	Load(key string) ([]byte, bool)
	Save(key string, value []byte) error
	Delete(key string) error
}

// Durable returns the sqlite-backed scope over this store's cache table.
func (s *Store) Durable() Scope {
	return durableScope{s}
}

type durableScope struct {
	s *Store
}

func (d durableScope) Load(key string) ([]byte, bool) {
	var value string
	err := d.s.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		// A broken cache row is treated the same as an absent one.
		return nil, false
	}
	return []byte(value), true
}

func (d durableScope) Save(key string, value []byte) error {
	_, err := d.s.db.Exec(
		`INSERT INTO cache (key, value, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value),
	)
	return err
}

func (d durableScope) Delete(key string) error {
	_, err := d.s.db.Exec(`DELETE FROM cache WHERE key = ?`, key)
	return err
}

// SessionScope is an in-process scope. Anything saved here is gone when the
// program exits, which is exactly what a non-remembered session token wants.
type SessionScope struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewSessionScope() *SessionScope {
	return &SessionScope{values: make(map[string][]byte)}
}

func (s *SessionScope) Load(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *SessionScope) Save(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *SessionScope) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
