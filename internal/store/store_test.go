package store

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/mealdeck.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen; should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Scopes
// ============================================================

func TestDurableScopeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	d := s.Durable()

	if _, ok := d.Load("missing"); ok {
		t.Fatal("expected miss for absent key")
	}

	if err := d.Save("k", []byte(`"v1"`)); err != nil {
		t.Fatal(err)
	}
	raw, ok := d.Load("k")
	if !ok || string(raw) != `"v1"` {
		t.Fatalf("unexpected load: %q %v", raw, ok)
	}

	// Overwrite
	if err := d.Save("k", []byte(`"v2"`)); err != nil {
		t.Fatal(err)
	}
	raw, _ = d.Load("k")
	if string(raw) != `"v2"` {
		t.Fatalf("expected v2, got %q", raw)
	}

	if err := d.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Load("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestDurableScopeSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/mealdeck.db"

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Durable().Save("token", []byte(`"abc"`))
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	raw, ok := s2.Durable().Load("token")
	if !ok || string(raw) != `"abc"` {
		t.Fatalf("expected persisted value, got %q %v", raw, ok)
	}
}

func TestSessionScope(t *testing.T) {
	sc := NewSessionScope()
	if _, ok := sc.Load("x"); ok {
		t.Fatal("expected empty scope")
	}
	sc.Save("x", []byte("1"))
	raw, ok := sc.Load("x")
	if !ok || string(raw) != "1" {
		t.Fatalf("unexpected load: %q %v", raw, ok)
	}
	sc.Delete("x")
	if _, ok := sc.Load("x"); ok {
		t.Fatal("expected miss after delete")
	}
}
