package store

import (
	"testing"
)

// ============================================================
// Cell basics
// ============================================================

func TestCellGetSet(t *testing.T) {
	c := NewCell(5)
	if c.Get() != 5 {
		t.Fatalf("expected 5, got %d", c.Get())
	}
	c.Set(7)
	if c.Get() != 7 {
		t.Fatalf("expected 7, got %d", c.Get())
	}
}

func TestCellSubscribeNoImmediateFire(t *testing.T) {
	c := NewCell("a")
	var calls []string
	c.Subscribe(func(v string) { calls = append(calls, v) })
	if len(calls) != 0 {
		t.Fatal("subscribe must not fire for the current value")
	}
	c.Set("b")
	if len(calls) != 1 || calls[0] != "b" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestCellSetEqualValueIsNoOp(t *testing.T) {
	sc := NewSessionScope()
	c := NewCachedCell(sc, "k", []int{1, 2})

	fired := 0
	c.Subscribe(func([]int) { fired++ })

	// Writing back the value that hydration produced must not notify and
	// must not hit storage.
	c.Set([]int{1, 2})
	if fired != 0 {
		t.Fatal("equal write must not notify")
	}
	if _, ok := sc.Load("k"); ok {
		t.Fatal("equal write must not persist")
	}

	c.Set([]int{1, 2, 3})
	if fired != 1 {
		t.Fatalf("expected one notification, got %d", fired)
	}
	if _, ok := sc.Load("k"); !ok {
		t.Fatal("changed write must persist")
	}
}

// ============================================================
// Hydration
// ============================================================

func TestCachedCellHydrates(t *testing.T) {
	sc := NewSessionScope()
	sc.Save("count", []byte("42"))

	c := NewCachedCell(sc, "count", 0)
	if c.Get() != 42 {
		t.Fatalf("expected hydrated 42, got %d", c.Get())
	}
}

func TestCachedCellCorruptFallsBack(t *testing.T) {
	sc := NewSessionScope()
	sc.Save("count", []byte("{not json"))

	c := NewCachedCell(sc, "count", 9)
	if c.Get() != 9 {
		t.Fatalf("expected fallback 9, got %d", c.Get())
	}
}

func TestCachedCellPersists(t *testing.T) {
	sc := NewSessionScope()
	c := NewCachedCell(sc, "name", "")
	c.Set("milk")

	c2 := NewCachedCell(sc, "name", "")
	if c2.Get() != "milk" {
		t.Fatalf("expected milk, got %q", c2.Get())
	}
}

// ============================================================
// Rebind and Clear
// ============================================================

func TestCellRebindMovesValue(t *testing.T) {
	a := NewSessionScope()
	b := NewSessionScope()

	c := NewCachedCell(a, "token", "")
	c.Set("tok1")

	c.Rebind(b)
	if _, ok := a.Load("token"); ok {
		t.Fatal("old scope should be cleaned")
	}
	raw, ok := b.Load("token")
	if !ok || string(raw) != `"tok1"` {
		t.Fatalf("new scope should carry value, got %q %v", raw, ok)
	}

	// Subsequent writes land in the new scope.
	c.Set("tok2")
	raw, _ = b.Load("token")
	if string(raw) != `"tok2"` {
		t.Fatalf("expected tok2, got %q", raw)
	}
}

func TestCellClear(t *testing.T) {
	a := NewSessionScope()
	b := NewSessionScope()
	a.Save("token", []byte(`"x"`))
	b.Save("token", []byte(`"x"`))

	c := NewCachedCell(a, "token", "")
	c.Clear(a, b)

	if _, ok := a.Load("token"); ok {
		t.Fatal("scope a should be cleared")
	}
	if _, ok := b.Load("token"); ok {
		t.Fatal("scope b should be cleared")
	}
	// In-memory value is untouched.
	if c.Get() != "x" {
		t.Fatalf("in-memory value should survive Clear, got %q", c.Get())
	}
}

func TestCellMultipleSubscribers(t *testing.T) {
	c := NewCell(0)
	got1, got2 := 0, 0
	c.Subscribe(func(v int) { got1 = v })
	c.Subscribe(func(v int) { got2 = v })
	c.Set(3)
	if got1 != 3 || got2 != 3 {
		t.Fatalf("all subscribers should fire: %d %d", got1, got2)
	}
}
