package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/resolve"
	"github.com/sadopc/mealdeck/internal/transfer"
)

type transferMode int

const (
	xferBrowse transferMode = iota
	xferName
	xferQty
	xferNote
	xferUnit
)

// transferClosedMsg tells the app to drop back to the previous view.
type transferClosedMsg struct{}

// unitsLoadedMsg delivers the unit catalog for the unit picker.
type unitsLoadedMsg struct {
	units []model.Unit
}

type transferModel struct {
	ctrl       *transfer.Controller
	resolver   *resolve.Resolver
	activeList func() string
	width      int
	height     int

	buffer     *transfer.Buffer
	recipeName string
	cursor     int

	mode     transferMode
	nameEdit autocompleteModel
	qtyInput textinput.Model
	noteEdit textinput.Model

	units      []model.Unit
	unitCursor int
}

func newTransferModel(ctrl *transfer.Controller, resolver *resolve.Resolver, activeList func() string) transferModel {
	qty := textinput.New()
	qty.Placeholder = "quantity"
	qty.CharLimit = 8

	note := textinput.New()
	note.Placeholder = "note"
	note.CharLimit = 200

	m := transferModel{
		ctrl:       ctrl,
		resolver:   resolver,
		activeList: activeList,
		qtyInput:   qty,
		noteEdit:   note,
	}
	m.nameEdit = newAutocomplete(3, "ingredient", m.searchFoods, "keep as typed")
	return m
}

func (m *transferModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m transferModel) searchFoods(query string) []suggestion {
	ctx, cancel := reqContext()
	defer cancel()
	foods, err := m.resolver.SearchAndRank(ctx, query, acMaxResults)
	if err != nil {
		return nil
	}
	out := make([]suggestion, 0, len(foods))
	for i := range foods {
		f := foods[i]
		out = append(out, suggestion{label: f.Name, food: &f})
	}
	return out
}

func (m *transferModel) load(recipe model.Recipe) {
	m.buffer = transfer.NewBuffer(recipe)
	m.recipeName = recipe.Name
	m.cursor = 0
	m.mode = xferBrowse
}

func (m transferModel) update(msg tea.Msg) (transferModel, tea.Cmd) {
	if m.buffer == nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case acDebounceMsg, acResultsMsg:
		var cmd tea.Cmd
		m.nameEdit, cmd = m.nameEdit.update(msg)
		return m, cmd

	case unitsLoadedMsg:
		m.units = msg.units
		m.unitCursor = 0
		if r := m.cursorRow(); r != nil {
			for i, u := range m.units {
				if u.ID == r.UnitID {
					m.unitCursor = i + 1
					break
				}
			}
		}
		m.mode = xferUnit
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case xferName:
			return m.updateName(msg)
		case xferQty:
			return m.updateQty(msg)
		case xferNote:
			return m.updateNote(msg)
		case xferUnit:
			return m.updateUnit(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m transferModel) updateBrowse(msg tea.KeyMsg) (transferModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		// Closing the workbench writes the buffer back to the recipe.
		buf := m.buffer
		closed := func() tea.Msg { return transferClosedMsg{} }
		if buf == nil || len(buf.Rows) == 0 {
			return m, closed
		}
		save := func() tea.Msg {
			ctx, cancel := reqContext()
			defer cancel()
			if err := m.ctrl.Save(ctx, buf); err != nil {
				return statusMsg{text: "Failed to save recipe: " + err.Error(), isError: true}
			}
			return nil
		}
		return m, tea.Batch(save, closed)
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.buffer.Rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		m.buffer.Toggle(m.cursor)
	case key.Matches(msg, keys.Add):
		m.cursor = m.buffer.AddRow()
		m.mode = xferName
		m.nameEdit.reset()
		return m, m.nameEdit.focus()
	case key.Matches(msg, keys.Delete):
		if m.cursorRow() != nil {
			m.buffer.RemoveRow(m.cursor)
			if m.cursor >= len(m.buffer.Rows) && m.cursor > 0 {
				m.cursor--
			}
		}
	case key.Matches(msg, keys.Unit):
		if r := m.cursorRow(); r != nil && !r.IsTitle() {
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				units, err := m.ctrl.Units(ctx)
				if err != nil {
					return statusMsg{text: err.Error(), isError: true}
				}
				return unitsLoadedMsg{units: units}
			}
		}
	case key.Matches(msg, keys.Enter):
		if r := m.cursorRow(); r != nil && !r.IsTitle() {
			m.mode = xferName
			m.nameEdit.reset()
			m.nameEdit.input.SetValue(r.Name)
			return m, m.nameEdit.focus()
		}
	case key.Matches(msg, keys.QtyUp), key.Matches(msg, keys.QtyDown):
		if r := m.cursorRow(); r != nil && !r.IsTitle() {
			m.mode = xferQty
			m.qtyInput.SetValue(strconv.FormatFloat(r.Quantity, 'f', -1, 64))
			return m, m.qtyInput.Focus()
		}
	case key.Matches(msg, keys.Note):
		if r := m.cursorRow(); r != nil && !r.IsTitle() {
			m.mode = xferNote
			m.noteEdit.SetValue(r.Note)
			return m, m.noteEdit.Focus()
		}
	case key.Matches(msg, keys.Stats): // s saves the buffer back to the recipe
		buf := m.buffer
		return m, func() tea.Msg {
			ctx, cancel := reqContext()
			defer cancel()
			if err := m.ctrl.Save(ctx, buf); err != nil {
				return statusMsg{text: err.Error(), isError: true}
			}
			return statusMsg{text: "Recipe saved"}
		}
	case key.Matches(msg, keys.Transfer):
		listID := m.activeList()
		if listID == "" {
			return m, func() tea.Msg {
				return statusMsg{text: "No shopping list selected", isError: true}
			}
		}
		buf := m.buffer
		return m, func() tea.Msg {
			ctx, cancel := reqContext()
			defer cancel()
			// Edits land on the recipe before its rows go to the list.
			if err := m.ctrl.Save(ctx, buf); err != nil {
				return statusMsg{text: "Failed to save recipe: " + err.Error(), isError: true}
			}
			sent, failed := m.ctrl.TransferChecked(ctx, buf, listID)
			return transferDoneMsg{sent: sent, failed: failed}
		}
	}
	return m, nil
}

func (m transferModel) updateName(msg tea.KeyMsg) (transferModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.nameEdit.open {
			m.mode = xferBrowse
			return m, nil
		}
	case "enter":
		if s := m.nameEdit.selected(); s != nil && s.food != nil {
			m.buffer.SetFood(m.cursor, *s.food)
		} else if name := m.nameEdit.value(); name != "" {
			m.buffer.SetName(m.cursor, name)
		}
		m.mode = xferBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.nameEdit, cmd = m.nameEdit.update(msg)
	return m, cmd
}

func (m transferModel) updateQty(msg tea.KeyMsg) (transferModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = xferBrowse
		return m, nil
	case "enter":
		if q, err := strconv.ParseFloat(strings.TrimSpace(m.qtyInput.Value()), 64); err == nil {
			m.buffer.SetQuantity(m.cursor, q)
		}
		m.mode = xferBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.qtyInput, cmd = m.qtyInput.Update(msg)
	return m, cmd
}

func (m transferModel) updateNote(msg tea.KeyMsg) (transferModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = xferBrowse
		return m, nil
	case "enter":
		m.buffer.SetNote(m.cursor, strings.TrimSpace(m.noteEdit.Value()))
		m.mode = xferBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.noteEdit, cmd = m.noteEdit.Update(msg)
	return m, cmd
}

// updateUnit drives the unit picker. Index 0 is "no unit"; the catalog
// entries follow.
func (m transferModel) updateUnit(msg tea.KeyMsg) (transferModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.mode = xferBrowse
	case key.Matches(msg, keys.Up):
		if m.unitCursor > 0 {
			m.unitCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.unitCursor < len(m.units) {
			m.unitCursor++
		}
	case key.Matches(msg, keys.Enter):
		if m.unitCursor == 0 {
			m.buffer.SetUnit(m.cursor, model.Unit{})
		} else {
			m.buffer.SetUnit(m.cursor, m.units[m.unitCursor-1])
		}
		m.mode = xferBrowse
	}
	return m, nil
}

func (m transferModel) cursorRow() *transfer.Row {
	if m.buffer == nil || m.cursor < 0 || m.cursor >= len(m.buffer.Rows) {
		return nil
	}
	return &m.buffer.Rows[m.cursor]
}

func (m transferModel) renderUnitPicker() []string {
	names := make([]string, 0, len(m.units)+1)
	names = append(names, "(no unit)")
	for _, u := range m.units {
		names = append(names, u.Name)
	}
	out := make([]string, 0, len(names))
	for i, n := range names {
		style := normalItemStyle
		cursor := "    "
		if i == m.unitCursor {
			style = selectedItemStyle
			cursor = "  > "
		}
		out = append(out, style.Render(cursor+n))
	}
	return out
}

func (m transferModel) view() string {
	w := m.width - 4

	var rows []string
	rows = append(rows, titleStyle.Render("Ingredients — "+m.recipeName))
	rows = append(rows, "")

	if m.buffer == nil || len(m.buffer.Rows) == 0 {
		rows = append(rows, mutedStyle.Render("No ingredients."))
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  esc: back"))
		return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	for i, r := range m.buffer.Rows {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		if r.IsTitle() {
			rows = append(rows, categoryStyle.Render(cursor+r.Title))
			continue
		}

		box := "[ ] "
		if r.Checked {
			box = "[x] "
		}
		qty := ""
		if r.Quantity > 0 {
			qty = strconv.FormatFloat(r.Quantity, 'f', -1, 64) + " "
		}
		unit := ""
		if r.UnitName != "" {
			unit = r.UnitName + " "
		}
		line := style.Render(cursor + box + qty + unit + r.Name)
		if r.Note != "" {
			line += mutedStyle.Render("  (" + r.Note + ")")
		}
		if r.FoodID == "" && r.Name != "" {
			line += warningStyle.Render("  unlinked")
		}
		rows = append(rows, line)

		if i == m.cursor {
			switch m.mode {
			case xferName:
				rows = append(rows, m.nameEdit.view())
			case xferQty:
				rows = append(rows, m.qtyInput.View())
			case xferNote:
				rows = append(rows, m.noteEdit.View())
			case xferUnit:
				rows = append(rows, m.renderUnitPicker()...)
			}
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d marked", len(m.buffer.CheckedRows()))))
	rows = append(rows, mutedStyle.Render("  space: mark  n: add  d: remove  enter: rename  +: qty  u: unit  o: note  s: save recipe  i: to shopping list  esc: back"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
