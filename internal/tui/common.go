package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/mealdeck/internal/model"
)

// viewState represents the currently active view.
type viewState int

const (
	viewMealPlan viewState = iota
	viewShopping
)

var viewNames = []string{"Meal Plan", "Shopping"}

// reqTimeout bounds every network command fired from the UI.
const reqTimeout = 15 * time.Second

func reqContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), reqTimeout)
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type listsDataMsg struct {
	lists    []model.ShoppingList
	activeID string
}

// shoppingDataMsg is the full shopping snapshot delivered on first load and
// after a list switch.
type shoppingDataMsg struct {
	lists    []model.ShoppingList
	activeID string
	labels   []model.Label
	items    []model.ShoppingItem
}

type itemsDataMsg struct {
	items []model.ShoppingItem
}

type labelsDataMsg struct {
	labels []model.Label
}

type planDataMsg struct {
	entries []model.MealPlanEntry
}

type loggedInMsg struct{}

type loginFailedMsg struct {
	reason string
}

type sessionExpiredMsg struct{}

type labelNeededMsg struct {
	item model.ShoppingItem
}

// overridePickedMsg carries a freshly created label back to the add flow's
// category override.
type overridePickedMsg struct {
	label model.Label
}

type bufferLoadedMsg struct {
	recipe model.Recipe
}

type transferDoneMsg struct {
	sent   int
	failed int
}

type exportDoneMsg struct {
	path string
}

// planErrorMsg carries an inline plan-tab error that auto-dismisses.
type planErrorMsg struct {
	text string
	seq  int
}

type planErrorClearMsg struct {
	seq int
}

// --- Helpers ---

func formatQuantity(q float64) string {
	if q <= 1 {
		return ""
	}
	return strconv.FormatFloat(q, 'f', -1, 64) + "x "
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
