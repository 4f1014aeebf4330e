package store

import (
	"encoding/json"
	"reflect"
	"sync"
)

// Cell is a single observable piece of state. Writing a new value notifies
// subscribers synchronously and, for cells bound to a Scope, persists the
// JSON-serialized value. Writing an unchanged value is a no-op: the write
// that merely echoes a hydrated initial value never hits storage and never
// re-renders anything.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  []func(T)
	scope Scope
	key   string
}

// NewCell creates an unbound (memory-only) cell.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// NewCachedCell creates a cell bound to scope under key, hydrated from the
// stored value when present. A corrupted or absent stored value silently
// falls back to fallback; hydration never fails and never notifies.
func NewCachedCell[T any](scope Scope, key string, fallback T) *Cell[T] {
	c := &Cell[T]{scope: scope, key: key, value: fallback}
	if raw, ok := scope.Load(key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			c.value = v
		}
	}
	return c
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores v, persists it if the cell is bound, and notifies subscribers.
// Equal values short-circuit entirely. Subscribers run outside the lock.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	if reflect.DeepEqual(c.value, v) {
		c.mu.Unlock()
		return
	}
	c.value = v
	subs := make([]func(T), len(c.subs))
	copy(subs, c.subs)
	scope, key := c.scope, c.key
	c.mu.Unlock()

	if scope != nil {
		if raw, err := json.Marshal(v); err == nil {
			scope.Save(key, raw)
		}
	}
	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers fn to run on every subsequent change. It does not fire
// for the current value.
func (c *Cell[T]) Subscribe(fn func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Rebind moves the cell's persistence to a different scope, carrying the
// current value over and removing it from the old scope. Used when the
// remember-me preference flips the token between durable and session storage.
func (c *Cell[T]) Rebind(scope Scope) {
	c.mu.Lock()
	old := c.scope
	c.scope = scope
	v, key := c.value, c.key
	c.mu.Unlock()

	if old != nil && old != scope {
		old.Delete(key)
	}
	if scope != nil {
		if raw, err := json.Marshal(v); err == nil {
			scope.Save(key, raw)
		}
	}
}

// Clear deletes the cell's stored value from the given scopes without
// touching the in-memory value. Logout uses this to purge the token from
// both storage scopes at once.
func (c *Cell[T]) Clear(scopes ...Scope) {
	c.mu.Lock()
	key := c.key
	c.mu.Unlock()
	for _, s := range scopes {
		if s != nil {
			s.Delete(key)
		}
	}
}
