// Package transfer implements the ingredient workbench: an editable buffer
// over a recipe's ingredient list that can be written back to the recipe or
// pushed onto a shopping list as properly linked items.
package transfer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/resolve"
	"github.com/sadopc/mealdeck/internal/store"
	syncpkg "github.com/sadopc/mealdeck/internal/sync"
)

// discreteUnits are the units whose counts survive the trip onto a shopping
// list. Everything else is a cooking measure that makes no sense on a
// shopping list and collapses to a single item.
var discreteUnits = map[string]bool{
	"can":   true,
	"jar":   true,
	"bunch": true,
	"head":  true,
	"pack":  true,
	"clove": true,
	"sprig": true,
	"bag":   true,
}

// Row is one editable line of the buffer. Title rows are section headers and
// are never transferred; quantity rows start checked.
type Row struct {
	Name        string
	Quantity    float64
	UnitName    string
	UnitID      string
	Note        string
	Title       string
	FoodID      string
	LabelID     string
	Checked     bool
	ReferenceID string
}

// IsTitle reports whether the row is a section header.
func (r Row) IsTitle() bool { return r.Title != "" }

// Buffer is the working copy of one recipe's ingredients.
type Buffer struct {
	Slug string
	Rows []Row
}

// NewBuffer snapshots a recipe's ingredient list into an editable buffer.
func NewBuffer(recipe model.Recipe) *Buffer {
	rows := make([]Row, 0, len(recipe.RecipeIngredient))
	for _, ing := range recipe.RecipeIngredient {
		row := Row{
			Quantity:    ing.Quantity,
			Note:        ing.Note,
			ReferenceID: ing.ReferenceID,
		}
		if ing.IsTitle() {
			row.Title = *ing.Title
		} else {
			row.Checked = true
		}
		if ing.Unit != nil {
			row.UnitName = ing.Unit.Name
			row.UnitID = ing.Unit.ID
		}
		if ing.Food != nil {
			row.Name = ing.Food.Name
			row.FoodID = ing.Food.ID
			if ing.Food.LabelID != "" {
				row.LabelID = ing.Food.LabelID
			} else if ing.Food.Label != nil {
				row.LabelID = ing.Food.Label.ID
			}
		} else if ing.Note != "" {
			row.Name = ing.Note
			row.Note = ""
		} else if ing.Display != "" {
			row.Name = ing.Display
		}
		rows = append(rows, row)
	}
	return &Buffer{Slug: recipe.Slug, Rows: rows}
}

// SetName renames a row. Editing the name severs the catalog link; the row
// resolves fresh on the next transfer or save.
func (b *Buffer) SetName(i int, name string) {
	if i < 0 || i >= len(b.Rows) {
		return
	}
	r := &b.Rows[i]
	if r.Name == name {
		return
	}
	r.Name = name
	r.FoodID = ""
	r.LabelID = ""
}

// SetFood links a row to a picked catalog entry.
func (b *Buffer) SetFood(i int, food model.Food) {
	if i < 0 || i >= len(b.Rows) {
		return
	}
	r := &b.Rows[i]
	r.Name = food.Name
	r.FoodID = food.ID
	r.LabelID = food.LabelID
	if r.LabelID == "" && food.Label != nil {
		r.LabelID = food.Label.ID
	}
}

func (b *Buffer) SetQuantity(i int, qty float64) {
	if i < 0 || i >= len(b.Rows) {
		return
	}
	if qty < 0 {
		qty = 0
	}
	b.Rows[i].Quantity = qty
}

func (b *Buffer) SetNote(i int, note string) {
	if i < 0 || i >= len(b.Rows) {
		return
	}
	b.Rows[i].Note = note
}

// SetUnit assigns a catalog unit to a row. A zero-value unit clears it.
func (b *Buffer) SetUnit(i int, unit model.Unit) {
	if i < 0 || i >= len(b.Rows) {
		return
	}
	b.Rows[i].UnitID = unit.ID
	b.Rows[i].UnitName = unit.Name
}

// AddRow appends a blank checked row and returns its index.
func (b *Buffer) AddRow() int {
	b.Rows = append(b.Rows, Row{Checked: true})
	return len(b.Rows) - 1
}

// RemoveRow deletes a row. The server forgets it on the next save.
func (b *Buffer) RemoveRow(i int) {
	if i < 0 || i >= len(b.Rows) {
		return
	}
	b.Rows = append(b.Rows[:i], b.Rows[i+1:]...)
}

// Toggle flips a quantity row's transfer mark. Title rows stay unchecked.
func (b *Buffer) Toggle(i int) {
	if i < 0 || i >= len(b.Rows) || b.Rows[i].IsTitle() {
		return
	}
	b.Rows[i].Checked = !b.Rows[i].Checked
}

// CheckedRows returns the quantity rows currently marked for transfer.
// Rows with nothing to transfer, no name and no food link, are skipped.
func (b *Buffer) CheckedRows() []Row {
	var out []Row
	for _, r := range b.Rows {
		if !r.Checked || r.IsTitle() {
			continue
		}
		if r.Name == "" && r.FoodID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Serialize renders the buffer back into the recipe's wire shape. Rows that
// never had a reference id get a fresh one so the server can track them.
func (b *Buffer) Serialize() []model.RecipeIngredient {
	out := make([]model.RecipeIngredient, 0, len(b.Rows))
	for _, r := range b.Rows {
		refID := r.ReferenceID
		if refID == "" {
			refID = uuid.NewString()
		}
		if r.IsTitle() {
			title := r.Title
			out = append(out, model.RecipeIngredient{
				Title:       &title,
				Note:        r.Note,
				ReferenceID: refID,
			})
			continue
		}
		ing := model.RecipeIngredient{
			Quantity:    r.Quantity,
			Note:        r.Note,
			ReferenceID: refID,
		}
		if r.UnitID != "" || r.UnitName != "" {
			ing.Unit = &model.Unit{ID: r.UnitID, Name: r.UnitName}
		}
		if r.FoodID != "" {
			ing.Food = &model.Food{ID: r.FoodID, Name: r.Name}
		} else if r.Name != "" {
			if ing.Note == "" {
				ing.Note = r.Name
			} else {
				ing.Note = r.Name + " " + ing.Note
			}
		}
		out = append(out, ing)
	}
	return out
}

// itemQuantity applies the shopping-list quantity policy: discrete units
// carry their count rounded up, everything else becomes a single untracked
// item. So 2.4 cans stays 3 cans but 2 cups of flour is just flour.
func itemQuantity(r Row) (qty float64, unitID string) {
	if r.UnitName != "" && discreteUnits[strings.ToLower(r.UnitName)] {
		q := math.Ceil(r.Quantity)
		if q < 1 {
			q = 1
		}
		return q, r.UnitID
	}
	return 1, ""
}

// Controller runs saves and transfers against the server.
type Controller struct {
	client   *api.Client
	resolver *resolve.Resolver
	eng      *syncpkg.Engine
	units    *store.Cell[[]model.Unit]
}

func NewController(client *api.Client, resolver *resolve.Resolver, eng *syncpkg.Engine, units *store.Cell[[]model.Unit]) *Controller {
	return &Controller{client: client, resolver: resolver, eng: eng, units: units}
}

// Units returns the unit catalog, fetching it on first use. The cached copy
// serves every later call and survives restarts via the cell's scope.
func (c *Controller) Units(ctx context.Context) ([]model.Unit, error) {
	if cached := c.units.Get(); len(cached) > 0 {
		return cached, nil
	}
	units, err := c.client.Units(ctx)
	if err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	c.units.Set(units)
	return units, nil
}

// Save writes the buffer back onto its recipe.
func (c *Controller) Save(ctx context.Context, b *Buffer) error {
	return c.client.UpdateRecipeIngredients(ctx, b.Slug, b.Serialize())
}

// TransferChecked pushes every checked row onto the given shopping list as a
// food-linked item. The pending guard covers the whole run, resolution phase
// included, so a background refresh can't clobber the burst of new items.
// Unlinked names are resolved once per distinct name, concurrently. Returns
// how many rows were transferred and how many failed.
func (c *Controller) TransferChecked(ctx context.Context, b *Buffer, listID string) (sent, failed int) {
	rows := b.CheckedRows()
	if len(rows) == 0 {
		return 0, 0
	}

	c.eng.BeginBatch()
	defer c.eng.EndBatch()

	// Resolve each distinct unlinked name to a catalog entry once,
	// concurrently. The first row's label wins for a shared name.
	type resolution struct {
		name    string
		labelID string
		food    *model.Food
	}
	pending := make(map[string]*resolution)
	for _, r := range rows {
		if r.FoodID != "" || r.Name == "" {
			continue
		}
		key := strings.ToLower(r.Name)
		if _, ok := pending[key]; !ok {
			pending[key] = &resolution{name: r.Name, labelID: r.LabelID}
		}
	}
	var wg sync.WaitGroup
	for _, res := range pending {
		wg.Add(1)
		go func(res *resolution) {
			defer wg.Done()
			res.food = c.resolver.FindOrCreate(ctx, res.name, res.labelID)
		}(res)
	}
	wg.Wait()

	items := make([]model.ShoppingItem, 0, len(rows))
	for _, r := range rows {
		item := model.ShoppingItem{ShoppingListID: listID}
		item.Quantity, item.UnitID = itemQuantity(r)

		foodID := r.FoodID
		if foodID == "" {
			if res := pending[strings.ToLower(r.Name)]; res != nil && res.food != nil {
				foodID = res.food.ID
			}
		}
		if foodID != "" {
			item.FoodID = foodID
			item.Food = &model.Food{ID: foodID, Name: r.Name}
		} else {
			item.Note = r.Name
		}
		if r.LabelID != "" {
			item.LabelID = r.LabelID
		}
		items = append(items, item)
	}

	// Paint the batch before the writes land. The provisional ids are
	// replaced when the caller refreshes after EndBatch.
	provisional := make([]model.ShoppingItem, len(items))
	copy(provisional, items)
	for i := range provisional {
		provisional[i].ID = uuid.NewString()
	}
	c.eng.InsertOptimistic(provisional)

	var okCount, failures atomic.Int64
	for _, item := range items {
		wg.Add(1)
		go func(item model.ShoppingItem) {
			defer wg.Done()
			if err := c.client.CreateShoppingItem(ctx, item); err != nil {
				failures.Add(1)
				return
			}
			okCount.Add(1)
		}(item)
	}
	wg.Wait()
	return int(okCount.Load()), int(failures.Load())
}
