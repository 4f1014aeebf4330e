// Package mealplan drives the rolling meal plan window: loading entries,
// grouping them into per-day meal sections, and turning free text into plan
// entries whether it names a URL, an existing recipe, or a brand new one.
package mealplan

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/store"
)

// PlanDays is the width of the rolling window shown, today included.
const PlanDays = 8

// MealOrder fixes the render order of meal sections within a day.
var MealOrder = []string{"breakfast", "lunch", "dinner", "side", "snack", "dessert", "drink"}

// PlanRange returns the inclusive [start, end] of the rolling window
// anchored at today.
func PlanRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, PlanDays-1)
}

// FormatDateParam renders a date the way the planner API expects it.
func FormatDateParam(t time.Time) string {
	return t.Format("2006-01-02")
}

// DayLabel renders a window date for display: "Today", "Tomorrow", or the
// weekday with the date.
func DayLabel(date, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch days := int(date.Sub(today).Hours() / 24); days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return date.Format("Monday, Jan 2")
	}
}

// Day is one rendered date of the plan window.
type Day struct {
	Date  time.Time
	Meals []Meal
}

// Meal is one meal section within a day.
type Meal struct {
	Type    string
	Entries []model.MealPlanEntry
}

// GroupEntries arranges entries into the window's days. Every day of the
// window appears even when empty; within a day, meals follow MealOrder and
// unknown entry types sort after the known ones, alphabetically.
func GroupEntries(entries []model.MealPlanEntry, now time.Time) []Day {
	start, _ := PlanRange(now)

	byDate := make(map[string][]model.MealPlanEntry)
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	days := make([]Day, 0, PlanDays)
	for i := 0; i < PlanDays; i++ {
		date := start.AddDate(0, 0, i)
		days = append(days, Day{
			Date:  date,
			Meals: groupMeals(byDate[FormatDateParam(date)]),
		})
	}
	return days
}

func groupMeals(entries []model.MealPlanEntry) []Meal {
	if len(entries) == 0 {
		return nil
	}
	byType := make(map[string][]model.MealPlanEntry)
	for _, e := range entries {
		byType[e.EntryType] = append(byType[e.EntryType], e)
	}

	var meals []Meal
	for _, t := range MealOrder {
		if es, ok := byType[t]; ok {
			meals = append(meals, Meal{Type: t, Entries: es})
			delete(byType, t)
		}
	}
	extra := make([]string, 0, len(byType))
	for t := range byType {
		extra = append(extra, t)
	}
	sort.Strings(extra)
	for _, t := range extra {
		meals = append(meals, Meal{Type: t, Entries: byType[t]})
	}
	return meals
}

// InputKind classifies what the add box's free text should become.
type InputKind int

const (
	// InputCreate makes a bare recipe named after the text.
	InputCreate InputKind = iota
	// InputImport scrapes the recipe from a URL.
	InputImport
)

// ClassifyInput decides whether text is a URL to import or a name to create.
func ClassifyInput(text string) InputKind {
	u, err := url.Parse(strings.TrimSpace(text))
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return InputImport
	}
	return InputCreate
}

type Controller struct {
	client  *api.Client
	entries *store.Cell[[]model.MealPlanEntry]
}

func NewController(client *api.Client, entries *store.Cell[[]model.MealPlanEntry]) *Controller {
	return &Controller{client: client, entries: entries}
}

func (c *Controller) Entries() []model.MealPlanEntry {
	return c.entries.Get()
}

// Load fetches the window's entries into the mirror.
func (c *Controller) Load(ctx context.Context) error {
	start, end := PlanRange(time.Now())
	entries, err := c.client.MealPlans(ctx, FormatDateParam(start), FormatDateParam(end))
	if err != nil {
		return fmt.Errorf("load meal plan: %w", err)
	}
	c.entries.Set(entries)
	return nil
}

// AddFromSelection plans an already-known recipe for a date and meal.
func (c *Controller) AddFromSelection(ctx context.Context, date time.Time, mealType, slug string) error {
	return c.add(ctx, date, mealType, slug)
}

// AddFromText plans from free text. URLs are imported as new recipes; other
// text creates a bare recipe of that name. Either way the resulting recipe
// goes on the plan.
func (c *Controller) AddFromText(ctx context.Context, date time.Time, mealType, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var slug string
	var err error
	if ClassifyInput(text) == InputImport {
		slug, err = c.client.CreateRecipeFromURL(ctx, text)
		if err != nil {
			return fmt.Errorf("import recipe: %w", err)
		}
	} else {
		slug, err = c.client.CreateRecipe(ctx, text)
		if err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
	}
	return c.add(ctx, date, mealType, slug)
}

func (c *Controller) add(ctx context.Context, date time.Time, mealType, slug string) error {
	recipe, err := c.client.Recipe(ctx, slug)
	if err != nil {
		return fmt.Errorf("fetch recipe %q: %w", slug, err)
	}
	entry := model.MealPlanEntry{
		Date:      FormatDateParam(date),
		EntryType: mealType,
		RecipeID:  recipe.ID,
	}
	if err := c.client.CreateMealPlanEntry(ctx, entry); err != nil {
		return fmt.Errorf("plan entry: %w", err)
	}
	return c.Load(ctx)
}

// Delete removes a plan entry and reloads the window.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	if err := c.client.DeleteMealPlanEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return c.Load(ctx)
}

// SearchRecipes backs the plan tab's recipe autocomplete.
func (c *Controller) SearchRecipes(ctx context.Context, query string, limit int) ([]model.RecipeSummary, error) {
	return c.client.SearchRecipes(ctx, query, limit)
}
