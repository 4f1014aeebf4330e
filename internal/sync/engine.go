// Package sync implements the optimistic update-then-reconcile pattern every
// in-place shopping-list edit goes through: mutate the local mirror, let the
// UI repaint immediately, issue the network write, and roll the mirror back
// with a notification if the write fails.
package sync

import (
	"context"
	"sync/atomic"

	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/store"
)

// Engine wraps the active list's item mirror.
type Engine struct {
	items  *store.Cell[[]model.ShoppingItem]
	notify func(string)

	// Advisory guard: while a bulk operation has optimistic entries in
	// flight, refreshes must not overwrite the mirror.
	pending atomic.Bool
}

// New creates an engine over the given mirror cell. notify receives exactly
// one message per failed write.
func New(items *store.Cell[[]model.ShoppingItem], notify func(string)) *Engine {
	if notify == nil {
		notify = func(string) {}
	}
	return &Engine{items: items, notify: notify}
}

func (e *Engine) Items() []model.ShoppingItem {
	return e.items.Get()
}

// Get looks an item up by id in the mirror.
func (e *Engine) Get(id string) (model.ShoppingItem, bool) {
	for _, it := range e.items.Get() {
		if it.ID == id {
			return it, true
		}
	}
	return model.ShoppingItem{}, false
}

// Replace swaps the whole mirror for fresh server state. It refuses to do so
// while a batch is pending, so a refresh racing a bulk insert cannot clobber
// optimistic entries whose server writes haven't landed yet.
func (e *Engine) Replace(items []model.ShoppingItem) bool {
	if e.pending.Load() {
		return false
	}
	e.items.Set(items)
	return true
}

// UpdateItem applies mutate to the item with the given id (no-op when
// absent), repaints via the mirror's subscribers, then runs put. On failure
// the item is reverted and errMsg is surfaced once.
func (e *Engine) UpdateItem(ctx context.Context, id string, mutate, revert func(*model.ShoppingItem), errMsg string, put func(context.Context, model.ShoppingItem) error) error {
	updated, ok := e.apply(id, mutate)
	if !ok {
		return nil
	}
	if err := put(ctx, updated); err != nil {
		e.apply(id, revert)
		e.notify(errMsg)
		return err
	}
	return nil
}

// apply mutates a copy of the identified item and writes it back to the
// mirror, returning the new value.
func (e *Engine) apply(id string, fn func(*model.ShoppingItem)) (model.ShoppingItem, bool) {
	items := e.items.Get()
	for i := range items {
		if items[i].ID != id {
			continue
		}
		next := make([]model.ShoppingItem, len(items))
		copy(next, items)
		item := items[i]
		fn(&item)
		next[i] = item
		e.items.Set(next)
		return item, true
	}
	return model.ShoppingItem{}, false
}

// InsertOptimistic appends provisional items to the mirror so a bulk insert
// paints before its server writes land. Callers hold the batch guard and
// refresh afterwards to swap the provisional ids for real ones.
func (e *Engine) InsertOptimistic(items []model.ShoppingItem) {
	if len(items) == 0 {
		return
	}
	current := e.items.Get()
	next := make([]model.ShoppingItem, 0, len(current)+len(items))
	next = append(next, current...)
	next = append(next, items...)
	e.items.Set(next)
}

// RemoveWhere drops all matching items from the mirror and returns them, for
// optimistic bulk deletes.
func (e *Engine) RemoveWhere(match func(model.ShoppingItem) bool) []model.ShoppingItem {
	items := e.items.Get()
	var kept, removed []model.ShoppingItem
	for _, it := range items {
		if match(it) {
			removed = append(removed, it)
		} else {
			kept = append(kept, it)
		}
	}
	if len(removed) > 0 {
		e.items.Set(kept)
	}
	return removed
}

// BeginBatch sets the pending guard. Every bulk operation that injects
// optimistic entries must hold it for its full duration, dedup phase
// included, and release it with EndBatch once all writes have settled.
func (e *Engine) BeginBatch() {
	e.pending.Store(true)
}

func (e *Engine) EndBatch() {
	e.pending.Store(false)
}

// Pending reports whether a bulk operation is in flight.
func (e *Engine) Pending() bool {
	return e.pending.Load()
}
