package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sadopc/mealdeck/internal/model"
)

// page accepts both response envelopes the server produces: a bare JSON
// array and an object carrying an items array.
type page[T any] struct {
	Items []T
}

func (p *page[T]) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Items)
	}
	var obj struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	p.Items = obj.Items
	return nil
}

// --- Labels ---

func (c *Client) Labels(ctx context.Context) ([]model.Label, error) {
	var p page[model.Label]
	if err := c.Call(ctx, http.MethodGet, "/groups/labels", nil, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

func (c *Client) CreateLabel(ctx context.Context, name string) (model.Label, error) {
	var l model.Label
	err := c.Call(ctx, http.MethodPost, "/groups/labels", map[string]string{"name": name}, &l)
	return l, err
}

// --- Shopping lists and items ---

func (c *Client) ShoppingLists(ctx context.Context) ([]model.ShoppingList, error) {
	var p page[model.ShoppingList]
	if err := c.Call(ctx, http.MethodGet, "/households/shopping/lists", nil, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

// ShoppingListItems fetches the detail of one list and returns its items.
func (c *Client) ShoppingListItems(ctx context.Context, listID string) ([]model.ShoppingItem, error) {
	var detail struct {
		ListItems []model.ShoppingItem `json:"listItems"`
	}
	if err := c.Call(ctx, http.MethodGet, "/households/shopping/lists/"+listID, nil, &detail); err != nil {
		return nil, err
	}
	return detail.ListItems, nil
}

func (c *Client) CreateShoppingItem(ctx context.Context, item model.ShoppingItem) error {
	return c.Call(ctx, http.MethodPost, "/households/shopping/items", item, nil)
}

func (c *Client) UpdateShoppingItem(ctx context.Context, item model.ShoppingItem) error {
	return c.Call(ctx, http.MethodPut, "/households/shopping/items/"+item.ID, item, nil)
}

func (c *Client) DeleteShoppingItem(ctx context.Context, id string) error {
	return c.Call(ctx, http.MethodDelete, "/households/shopping/items/"+id, nil, nil)
}

// AddRecipeToList asks the server to append a recipe's full ingredient list
// to a shopping list.
func (c *Client) AddRecipeToList(ctx context.Context, listID, recipeID string) error {
	path := fmt.Sprintf("/households/shopping/lists/%s/recipe/%s", listID, recipeID)
	return c.Call(ctx, http.MethodPost, path, nil, nil)
}

// --- Foods ---

func (c *Client) SearchFoods(ctx context.Context, query string, perPage int) ([]model.Food, error) {
	var p page[model.Food]
	path := fmt.Sprintf("/foods?search=%s&perPage=%d&page=1", url.QueryEscape(query), perPage)
	if err := c.Call(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

func (c *Client) Food(ctx context.Context, id string) (model.Food, error) {
	var f model.Food
	err := c.Call(ctx, http.MethodGet, "/foods/"+id, nil, &f)
	return f, err
}

func (c *Client) CreateFood(ctx context.Context, name, labelID string) (model.Food, error) {
	body := map[string]string{"name": name}
	if labelID != "" {
		body["labelId"] = labelID
	}
	var f model.Food
	err := c.Call(ctx, http.MethodPost, "/foods", body, &f)
	return f, err
}

func (c *Client) UpdateFood(ctx context.Context, food model.Food) error {
	return c.Call(ctx, http.MethodPut, "/foods/"+food.ID, food, nil)
}

// --- Units ---

func (c *Client) Units(ctx context.Context) ([]model.Unit, error) {
	var p page[model.Unit]
	if err := c.Call(ctx, http.MethodGet, "/units", nil, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

// --- Recipes ---

func (c *Client) SearchRecipes(ctx context.Context, query string, perPage int) ([]model.RecipeSummary, error) {
	var p page[model.RecipeSummary]
	path := fmt.Sprintf("/recipes?search=%s&perPage=%d&page=1", url.QueryEscape(query), perPage)
	if err := c.Call(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

// CreateRecipe creates a bare recipe and returns its slug.
func (c *Client) CreateRecipe(ctx context.Context, name string) (string, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, http.MethodPost, "/recipes", map[string]string{"name": name}, &raw); err != nil {
		return "", err
	}
	return slugFromResponse(raw), nil
}

// CreateRecipeFromURL imports a recipe from a web page and returns its slug.
func (c *Client) CreateRecipeFromURL(ctx context.Context, pageURL string) (string, error) {
	body := map[string]any{"url": pageURL, "includeTags": false}
	var raw json.RawMessage
	if err := c.Call(ctx, http.MethodPost, "/recipes/create/url", body, &raw); err != nil {
		return "", err
	}
	return slugFromResponse(raw), nil
}

// slugFromResponse unwraps the recipe-creation response, which arrives either
// as a plain JSON string (sometimes doubly quoted) or an object with a slug.
func slugFromResponse(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.Trim(strings.TrimSpace(s), `"`)
	}
	var obj struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Slug != "" {
		return obj.Slug
	}
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

func (c *Client) Recipe(ctx context.Context, slug string) (model.Recipe, error) {
	var r model.Recipe
	err := c.Call(ctx, http.MethodGet, "/recipes/"+slug, nil, &r)
	return r, err
}

// UpdateRecipeIngredients replaces a recipe's ingredient list wholesale.
func (c *Client) UpdateRecipeIngredients(ctx context.Context, slug string, rows []model.RecipeIngredient) error {
	body := map[string]any{"recipeIngredient": rows}
	return c.Call(ctx, http.MethodPatch, "/recipes/"+slug, body, nil)
}

// --- Meal plans ---

func (c *Client) MealPlans(ctx context.Context, startDate, endDate string) ([]model.MealPlanEntry, error) {
	var p page[model.MealPlanEntry]
	path := fmt.Sprintf("/households/mealplans?start_date=%s&end_date=%s&perPage=50&page=1", startDate, endDate)
	if err := c.Call(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

func (c *Client) CreateMealPlanEntry(ctx context.Context, entry model.MealPlanEntry) error {
	return c.Call(ctx, http.MethodPost, "/households/mealplans", entry, nil)
}

func (c *Client) DeleteMealPlanEntry(ctx context.Context, id int64) error {
	return c.Call(ctx, http.MethodDelete, fmt.Sprintf("/households/mealplans/%d", id), nil, nil)
}
