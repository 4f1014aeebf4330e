package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/mealplan"
	"github.com/sadopc/mealdeck/internal/model"
)

type planMode int

const (
	planBrowse planMode = iota
	planAdd
)

type planModel struct {
	ctrl   *mealplan.Controller
	client *api.Client
	// activeList resolves the shopping list that recipe ingredients go to.
	activeList func() string
	width      int
	height     int

	entries []model.MealPlanEntry
	days    []mealplan.Day

	dayCursor   int
	entryCursor int

	mode       planMode
	mealCursor int
	add        autocompleteModel

	errText string
	errSeq  int
}

func newPlanModel(ctrl *mealplan.Controller, client *api.Client, activeList func() string) planModel {
	m := planModel{
		ctrl:       ctrl,
		client:     client,
		activeList: activeList,
	}
	m.add = newAutocomplete(2, "recipe name or URL", m.searchRecipes)
	return m
}

func (m *planModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m planModel) searchRecipes(query string) []suggestion {
	ctx, cancel := reqContext()
	defer cancel()
	recipes, err := m.ctrl.SearchRecipes(ctx, query, 5)
	if err != nil {
		return nil
	}
	out := make([]suggestion, 0, len(recipes))
	for i := range recipes {
		r := recipes[i]
		out = append(out, suggestion{label: r.Name, recipe: &r})
	}
	return out
}

func (m planModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		if err := m.ctrl.Load(ctx); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return planDataMsg{entries: m.ctrl.Entries()}
	}
}

func (m planModel) update(msg tea.Msg) (planModel, tea.Cmd) {
	switch msg := msg.(type) {
	case planDataMsg:
		m.entries = msg.entries
		m.days = mealplan.GroupEntries(m.entries, time.Now())
		m.clampCursor()
		return m, nil

	case planErrorMsg:
		// Inline error under the add box; the input stays as typed.
		m.errText = msg.text
		m.errSeq = msg.seq
		seq := msg.seq
		return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
			return planErrorClearMsg{seq: seq}
		})

	case planErrorClearMsg:
		if msg.seq == m.errSeq {
			m.errText = ""
		}
		return m, nil

	case acDebounceMsg, acResultsMsg:
		var cmd tea.Cmd
		m.add, cmd = m.add.update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.mode == planAdd {
			return m.updateAdd(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m planModel) updateBrowse(msg tea.KeyMsg) (planModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left):
		if m.dayCursor > 0 {
			m.dayCursor--
			m.entryCursor = 0
		}
	case key.Matches(msg, keys.Right):
		if m.dayCursor < len(m.days)-1 {
			m.dayCursor++
			m.entryCursor = 0
		}
	case key.Matches(msg, keys.Up):
		if m.entryCursor > 0 {
			m.entryCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.entryCursor < m.dayEntryCount()-1 {
			m.entryCursor++
		}
	case key.Matches(msg, keys.Add):
		m.mode = planAdd
		m.mealCursor = 0
		m.add.reset()
		m.errText = ""
		return m, m.add.focus()
	case key.Matches(msg, keys.Delete):
		if e, ok := m.cursorEntry(); ok {
			id := e.ID
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				if err := m.ctrl.Delete(ctx, id); err != nil {
					return statusMsg{text: err.Error(), isError: true}
				}
				return planDataMsg{entries: m.ctrl.Entries()}
			}
		}
	case key.Matches(msg, keys.Enter):
		// Send the recipe's ingredients to the active shopping list.
		if e, ok := m.cursorEntry(); ok && e.Recipe != nil {
			recipeID := e.Recipe.ID
			listID := m.activeList()
			if listID == "" {
				return m, func() tea.Msg {
					return statusMsg{text: "No shopping list selected", isError: true}
				}
			}
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				if err := m.client.AddRecipeToList(ctx, listID, recipeID); err != nil {
					return statusMsg{text: err.Error(), isError: true}
				}
				return statusMsg{text: "Ingredients added to shopping list"}
			}
		}
	case key.Matches(msg, keys.Transfer):
		// Open the ingredient workbench on the recipe under the cursor.
		if e, ok := m.cursorEntry(); ok && e.Recipe != nil {
			slug := e.Recipe.Slug
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				recipe, err := m.client.Recipe(ctx, slug)
				if err != nil {
					return statusMsg{text: err.Error(), isError: true}
				}
				return bufferLoadedMsg{recipe: recipe}
			}
		}
	}
	return m, nil
}

func (m planModel) updateAdd(msg tea.KeyMsg) (planModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.add.open {
			m.mode = planBrowse
			return m, nil
		}
	case "shift+tab", "ctrl+p":
		if m.mealCursor > 0 {
			m.mealCursor--
		}
		return m, nil
	case "tab", "ctrl+n":
		if m.mealCursor < len(mealplan.MealOrder)-1 {
			m.mealCursor++
		}
		return m, nil
	case "enter":
		text := m.add.value()
		if text == "" || m.dayCursor >= len(m.days) {
			m.mode = planBrowse
			return m, nil
		}
		date := m.days[m.dayCursor].Date
		mealType := mealplan.MealOrder[m.mealCursor]
		m.errSeq++
		seq := m.errSeq
		if s := m.add.selected(); s != nil && s.recipe != nil {
			slug := s.recipe.Slug
			return m, m.addCmd(seq, func() error {
				ctx, cancel := reqContext()
				defer cancel()
				return m.ctrl.AddFromSelection(ctx, date, mealType, slug)
			})
		}
		return m, m.addCmd(seq, func() error {
			ctx, cancel := reqContext()
			defer cancel()
			return m.ctrl.AddFromText(ctx, date, mealType, text)
		})
	}
	var cmd tea.Cmd
	m.add, cmd = m.add.update(msg)
	return m, cmd
}

// addCmd runs an add operation. Failures come back as an inline error so the
// typed input survives; success closes the add box via planDataMsg.
func (m planModel) addCmd(seq int, op func() error) tea.Cmd {
	return func() tea.Msg {
		if err := op(); err != nil {
			return planErrorMsg{text: err.Error(), seq: seq}
		}
		return planDataMsg{entries: m.ctrl.Entries()}
	}
}

func (m planModel) dayEntryCount() int {
	if m.dayCursor >= len(m.days) {
		return 0
	}
	n := 0
	for _, meal := range m.days[m.dayCursor].Meals {
		n += len(meal.Entries)
	}
	return n
}

func (m planModel) cursorEntry() (model.MealPlanEntry, bool) {
	if m.dayCursor >= len(m.days) {
		return model.MealPlanEntry{}, false
	}
	idx := 0
	for _, meal := range m.days[m.dayCursor].Meals {
		for _, e := range meal.Entries {
			if idx == m.entryCursor {
				return e, true
			}
			idx++
		}
	}
	return model.MealPlanEntry{}, false
}

func (m *planModel) clampCursor() {
	if m.dayCursor >= len(m.days) {
		m.dayCursor = max(0, len(m.days)-1)
	}
	if n := m.dayEntryCount(); m.entryCursor >= n {
		m.entryCursor = max(0, n-1)
	}
}

func (m planModel) view() string {
	w := m.width - 4
	now := time.Now()

	var rows []string
	rows = append(rows, titleStyle.Render("Meal Plan"))
	rows = append(rows, "")

	for di, day := range m.days {
		label := mealplan.DayLabel(day.Date, now)
		if di == m.dayCursor {
			rows = append(rows, highlightStyle.Bold(true).Render("▸ "+label))
		} else {
			rows = append(rows, subtitleStyle.Render("  "+label))
		}

		if di == m.dayCursor {
			idx := 0
			for _, meal := range day.Meals {
				rows = append(rows, categoryStyle.Render("    "+capitalize(meal.Type)))
				for _, e := range meal.Entries {
					cursor := "      "
					style := normalItemStyle
					if idx == m.entryCursor && m.mode == planBrowse {
						cursor = "    > "
						style = selectedItemStyle
					}
					rows = append(rows, style.Render(cursor+e.DisplayName()))
					idx++
				}
			}
			if idx == 0 {
				rows = append(rows, mutedStyle.Render("      nothing planned"))
			}
			if m.mode == planAdd {
				rows = append(rows, "")
				rows = append(rows, m.renderAddBox())
			}
		} else {
			if n := countEntries(day); n > 0 {
				rows = append(rows, mutedStyle.Render("    "+summarize(day)))
			}
		}
		rows = append(rows, "")
	}

	rows = append(rows, mutedStyle.Render("  ←/→: day  n: plan  enter: to shopping list  i: ingredients  d: remove"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m planModel) renderAddBox() string {
	var meals []string
	for i, t := range mealplan.MealOrder {
		if i == m.mealCursor {
			meals = append(meals, activeTabStyle.Render(t))
		} else {
			meals = append(meals, inactiveTabStyle.Render(t))
		}
	}
	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Bottom, meals...),
		m.add.view(),
	}
	if m.errText != "" {
		rows = append(rows, errorStyle.Render(m.errText))
	}
	rows = append(rows, mutedStyle.Render("  tab: meal  enter: plan  esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func countEntries(day mealplan.Day) int {
	n := 0
	for _, meal := range day.Meals {
		n += len(meal.Entries)
	}
	return n
}

func summarize(day mealplan.Day) string {
	var names []string
	for _, meal := range day.Meals {
		for _, e := range meal.Entries {
			names = append(names, e.DisplayName())
		}
	}
	return strings.Join(names, ", ")
}
