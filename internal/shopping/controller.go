// Package shopping owns the active shopping list: loading, grouping, the
// add/edit/label/clear lifecycle, and the optimistic mutations behind each
// in-place edit.
package shopping

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/resolve"
	"github.com/sadopc/mealdeck/internal/store"
	syncpkg "github.com/sadopc/mealdeck/internal/sync"
)

type Controller struct {
	client   *api.Client
	eng      *syncpkg.Engine
	resolver *resolve.Resolver

	lists      *store.Cell[[]model.ShoppingList]
	activeList *store.Cell[string]
	labels     *store.Cell[[]model.Label]

	notify func(string)
}

func NewController(
	client *api.Client,
	eng *syncpkg.Engine,
	resolver *resolve.Resolver,
	lists *store.Cell[[]model.ShoppingList],
	activeList *store.Cell[string],
	labels *store.Cell[[]model.Label],
	notify func(string),
) *Controller {
	if notify == nil {
		notify = func(string) {}
	}
	return &Controller{
		client:     client,
		eng:        eng,
		resolver:   resolver,
		lists:      lists,
		activeList: activeList,
		labels:     labels,
		notify:     notify,
	}
}

func (c *Controller) Engine() *syncpkg.Engine { return c.eng }

func (c *Controller) Lists() []model.ShoppingList { return c.lists.Get() }

func (c *Controller) ActiveListID() string { return c.activeList.Get() }

func (c *Controller) LabelCatalog() []model.Label { return c.labels.Get() }

// LoadLabels refreshes the label catalog.
func (c *Controller) LoadLabels(ctx context.Context) error {
	labels, err := c.client.Labels(ctx)
	if err != nil {
		return err
	}
	c.labels.Set(labels)
	return nil
}

// LoadLists refreshes the set of shopping lists and, when no active list is
// selected yet, activates the first one.
func (c *Controller) LoadLists(ctx context.Context) error {
	lists, err := c.client.ShoppingLists(ctx)
	if err != nil {
		return err
	}
	c.lists.Set(lists)
	if c.activeList.Get() == "" && len(lists) > 0 {
		c.activeList.Set(lists[0].ID)
	}
	return nil
}

// SelectList activates a list and loads its items.
func (c *Controller) SelectList(ctx context.Context, id string) error {
	c.activeList.Set(id)
	return c.Refresh(ctx)
}

// Refresh re-fetches the active list's items. It is skipped while a bulk
// operation holds the pending guard, so optimistic entries are never
// clobbered by a racing fetch.
func (c *Controller) Refresh(ctx context.Context) error {
	listID := c.activeList.Get()
	if listID == "" {
		return nil
	}
	if c.eng.Pending() {
		return nil
	}
	items, err := c.client.ShoppingListItems(ctx, listID)
	if err != nil {
		return fmt.Errorf("load list: %w", err)
	}
	c.eng.Replace(items)
	return nil
}

// Toggle flips an item's checked state, stamping the update time used to
// order the checked section.
func (c *Controller) Toggle(ctx context.Context, id string, checked bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	var prevChecked bool
	var prevUpdate string
	return c.eng.UpdateItem(ctx, id,
		func(it *model.ShoppingItem) {
			prevChecked, prevUpdate = it.Checked, it.UpdateAt
			it.Checked = checked
			it.UpdateAt = now
		},
		func(it *model.ShoppingItem) {
			it.Checked = prevChecked
			it.UpdateAt = prevUpdate
		},
		"Failed to update item",
		c.client.UpdateShoppingItem,
	)
}

// AdjustQuantity changes an item's quantity by delta, clamped to a minimum
// of 1. A delta that doesn't change the clamped value issues no network call.
func (c *Controller) AdjustQuantity(ctx context.Context, id string, delta int) error {
	item, ok := c.eng.Get(id)
	if !ok {
		return nil
	}
	prevQty := item.Quantity
	oldQty := prevQty
	if oldQty < 1 {
		oldQty = 1
	}
	newQty := oldQty + float64(delta)
	if newQty < 1 {
		newQty = 1
	}
	if newQty == oldQty {
		return nil
	}
	return c.eng.UpdateItem(ctx, id,
		func(it *model.ShoppingItem) { it.Quantity = newQty },
		func(it *model.ShoppingItem) { it.Quantity = prevQty },
		"Failed to update quantity",
		c.client.UpdateShoppingItem,
	)
}

// SetNote replaces an item's note.
func (c *Controller) SetNote(ctx context.Context, id, note string) error {
	var prev string
	return c.eng.UpdateItem(ctx, id,
		func(it *model.ShoppingItem) {
			prev = it.Note
			it.Note = note
		},
		func(it *model.ShoppingItem) { it.Note = prev },
		"Failed to update note",
		c.client.UpdateShoppingItem,
	)
}

// SetLabel assigns a label (empty id clears it) and then, best-effort,
// propagates the label to the linked food so future items inherit it. The
// propagation failure is logged and swallowed; it never reverts the primary
// change and never notifies.
func (c *Controller) SetLabel(ctx context.Context, id, labelID string) error {
	label := c.findLabel(labelID)
	var prevID string
	var prevLabel *model.Label
	err := c.eng.UpdateItem(ctx, id,
		func(it *model.ShoppingItem) {
			prevID, prevLabel = it.LabelID, it.Label
			it.LabelID = labelID
			it.Label = label
		},
		func(it *model.ShoppingItem) {
			it.LabelID = prevID
			it.Label = prevLabel
		},
		"Failed to update category",
		c.client.UpdateShoppingItem,
	)
	if err != nil {
		return err
	}

	if item, ok := c.eng.Get(id); ok {
		foodID := item.FoodID
		if foodID == "" && item.Food != nil {
			foodID = item.Food.ID
		}
		if foodID != "" {
			c.propagateFoodLabel(ctx, foodID, labelID)
		}
	}
	return c.Refresh(ctx)
}

func (c *Controller) propagateFoodLabel(ctx context.Context, foodID, labelID string) {
	food, err := c.client.Food(ctx, foodID)
	if err != nil {
		log.Printf("food label propagation: fetch %s: %v", foodID, err)
		return
	}
	food.LabelID = labelID
	food.Label = nil
	if err := c.client.UpdateFood(ctx, food); err != nil {
		log.Printf("food label propagation: update %s: %v", foodID, err)
	}
}

func (c *Controller) findLabel(id string) *model.Label {
	if id == "" {
		return nil
	}
	for _, l := range c.labels.Get() {
		if l.ID == id {
			return &l
		}
	}
	return &model.Label{ID: id}
}

// Add creates an item from free text. The label comes from the category
// override, else from an autocompleted food's inherited label. When neither
// yields a label, the created item is re-located in the refreshed mirror and
// returned so the caller can open the label picker for it; the list never
// silently accumulates uncategorized items.
func (c *Controller) Add(ctx context.Context, text, overrideLabelID string, selected *model.Food) (*model.ShoppingItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	item := model.ShoppingItem{ShoppingListID: c.activeList.Get()}
	hasLabel := overrideLabelID != "" || (selected != nil && selected.LabelID != "")

	if selected != nil {
		item.FoodID = selected.ID
		if overrideLabelID != "" && overrideLabelID != selected.LabelID {
			item.LabelID = overrideLabelID
		}
	} else {
		food := c.resolver.FindOrCreate(ctx, text, overrideLabelID)
		if food != nil {
			item.FoodID = food.ID
			if food.LabelID != "" || (food.Label != nil && food.Label.ID != "") {
				hasLabel = true
			}
		} else {
			item.Note = text
		}
		if overrideLabelID != "" {
			item.LabelID = overrideLabelID
		}
	}

	if err := c.client.CreateShoppingItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, nil
	}
	if !hasLabel {
		return FindAdded(c.eng.Items(), text), nil
	}
	return nil, nil
}

// FindAdded locates a just-created item by matching the submitted text
// against unchecked items' food names or notes, case-insensitively.
func FindAdded(items []model.ShoppingItem, text string) *model.ShoppingItem {
	for i := range items {
		it := items[i]
		if it.Checked {
			continue
		}
		if it.Food != nil && strings.EqualFold(it.Food.Name, text) {
			return &items[i]
		}
		if it.Note != "" && strings.EqualFold(it.Note, text) {
			return &items[i]
		}
	}
	return nil
}

// Delete removes a single item, optimistically.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.eng.RemoveWhere(func(it model.ShoppingItem) bool { return it.ID == id })
	if err := c.client.DeleteShoppingItem(ctx, id); err != nil {
		c.notify("Failed to delete item")
		return c.Refresh(ctx)
	}
	return nil
}

// ClearChecked removes every checked item from the mirror immediately, then
// deletes them server-side one by one. Individual failures are logged and do
// not block or roll back the rest.
func (c *Controller) ClearChecked(ctx context.Context) int {
	removed := c.eng.RemoveWhere(func(it model.ShoppingItem) bool { return it.Checked })
	for _, it := range removed {
		if err := c.client.DeleteShoppingItem(ctx, it.ID); err != nil {
			log.Printf("delete item %s: %v", it.ID, err)
		}
	}
	return len(removed)
}

// CreateLabel makes a new category from the label picker's search box and
// adds it to the local catalog.
func (c *Controller) CreateLabel(ctx context.Context, name string) (model.Label, error) {
	label, err := c.client.CreateLabel(ctx, name)
	if err != nil {
		return model.Label{}, fmt.Errorf("create label: %w", err)
	}
	c.labels.Set(append(c.labels.Get(), label))
	return label, nil
}
