// Package model holds the wire types shared with the Mealie server.
// Fields mirror the server's JSON; everything else in the client works
// against these shapes.
package model

// Label is a flat shopping category. Items and foods each carry at most one.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Food is a canonical catalog entry that items and ingredients may link to.
type Food struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LabelID string `json:"labelId,omitempty"`
	Label   *Label `json:"label,omitempty"`
}

// Unit is a read-only measurement unit from the shared catalog.
type Unit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ShoppingList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShoppingItem is one row of a shopping list. Quantity is kept as the
// server's float shape but the client only ever writes whole numbers >= 1.
type ShoppingItem struct {
	ID             string  `json:"id,omitempty"`
	ShoppingListID string  `json:"shoppingListId,omitempty"`
	Quantity       float64 `json:"quantity,omitempty"`
	Checked        bool    `json:"checked"`
	Note           string  `json:"note,omitempty"`
	Display        string  `json:"display,omitempty"`
	FoodID         string  `json:"foodId,omitempty"`
	Food           *Food   `json:"food,omitempty"`
	LabelID        string  `json:"labelId,omitempty"`
	Label          *Label  `json:"label,omitempty"`
	UnitID         string  `json:"unitId,omitempty"`
	UpdateAt       string  `json:"updateAt,omitempty"`
}

// DisplayName resolves the visible name of an item:
// food name, then note, then display, then "(unnamed)".
func (i ShoppingItem) DisplayName() string {
	if i.Food != nil && i.Food.Name != "" {
		return i.Food.Name
	}
	if i.Note != "" {
		return i.Note
	}
	if i.Display != "" {
		return i.Display
	}
	return "(unnamed)"
}

// EffectiveLabel is the item's own label if set, else its linked food's
// label, else the catch-all "Other".
func (i ShoppingItem) EffectiveLabel() string {
	if i.Label != nil && i.Label.Name != "" {
		return i.Label.Name
	}
	if i.Food != nil && i.Food.Label != nil && i.Food.Label.Name != "" {
		return i.Food.Label.Name
	}
	return "Other"
}

// RecipeIngredient is one row of a recipe's ingredient list. A row is either
// a section title (Title non-nil) or a quantity row. ReferenceID is the
// stable identity token the server expects back on write.
type RecipeIngredient struct {
	Quantity    float64 `json:"quantity"`
	Unit        *Unit   `json:"unit"`
	Food        *Food   `json:"food"`
	Note        string  `json:"note"`
	Title       *string `json:"title"`
	Display     string  `json:"display,omitempty"`
	ReferenceID string  `json:"referenceId,omitempty"`
}

// IsTitle reports whether the row is a section header.
func (r RecipeIngredient) IsTitle() bool {
	return r.Title != nil && *r.Title != ""
}

type Recipe struct {
	ID               string             `json:"id"`
	Slug             string             `json:"slug"`
	Name             string             `json:"name"`
	RecipeIngredient []RecipeIngredient `json:"recipeIngredient,omitempty"`
}

// RecipeSummary is the shape returned by recipe search.
type RecipeSummary struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// MealPlanEntry is one planned meal on a calendar day. Either Recipe/RecipeID
// or the free-text Title is set.
type MealPlanEntry struct {
	ID        int64   `json:"id,omitempty"`
	Date      string  `json:"date"`
	EntryType string  `json:"entryType"`
	Title     string  `json:"title,omitempty"`
	RecipeID  string  `json:"recipeId,omitempty"`
	Recipe    *Recipe `json:"recipe,omitempty"`
}

// DisplayName resolves the visible name of a plan entry.
func (e MealPlanEntry) DisplayName() string {
	if e.Recipe != nil && e.Recipe.Name != "" {
		return e.Recipe.Name
	}
	if e.Title != "" {
		return e.Title
	}
	return "(untitled)"
}
