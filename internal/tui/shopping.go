package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mealdeck/internal/model"
	"github.com/sadopc/mealdeck/internal/resolve"
	"github.com/sadopc/mealdeck/internal/shopping"
)

type shoppingMode int

const (
	shopBrowse shoppingMode = iota
	shopAdd
	shopNote
	shopLabel
	shopLists
	shopStats
)

type shoppingModel struct {
	ctrl     *shopping.Controller
	resolver *resolve.Resolver
	width    int
	height   int

	items  []model.ShoppingItem
	lists  []model.ShoppingList
	labels []model.Label

	activeID string

	// rowIDs is the cursor's flattened view: item ids in render order.
	rowIDs []string
	cursor int

	mode shoppingMode
	add  autocompleteModel

	// Category override for the pending add, chosen via the picker.
	addOverrideID   string
	addOverrideName string

	noteInput textinput.Model

	labelCursor int
	labelInput  textinput.Model
	// labelTarget is the item the picker applies to.
	labelTarget string
	// labelForAdd routes the picker's choice to the add flow's category
	// override instead of an existing item.
	labelForAdd bool

	listCursor int

	chart barchart.Model
}

func newShoppingModel(ctrl *shopping.Controller, resolver *resolve.Resolver) shoppingModel {
	note := textinput.New()
	note.Placeholder = "note"
	note.CharLimit = 200

	labelSearch := textinput.New()
	labelSearch.Placeholder = "filter or create"
	labelSearch.CharLimit = 60

	m := shoppingModel{
		ctrl:       ctrl,
		resolver:   resolver,
		noteInput:  note,
		labelInput: labelSearch,
		chart:      barchart.New(60, 10),
	}
	m.add = newAutocomplete(1, "add an item", m.searchFoods, "add as plain text")
	return m
}

func (m *shoppingModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m shoppingModel) searchFoods(query string) []suggestion {
	ctx, cancel := reqContext()
	defer cancel()
	foods, err := m.resolver.SearchAndRank(ctx, query, acMaxResults)
	if err != nil {
		return nil
	}
	out := make([]suggestion, 0, len(foods))
	for i := range foods {
		f := foods[i]
		label := f.Name
		if f.Label != nil && f.Label.Name != "" {
			label += mutedStyle.Render("  " + f.Label.Name)
		}
		out = append(out, suggestion{label: label, food: &f})
	}
	return out
}

func (m shoppingModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		if err := m.ctrl.LoadLabels(ctx); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		if err := m.ctrl.LoadLists(ctx); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		if err := m.ctrl.Refresh(ctx); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return shoppingDataMsg{
			lists:    m.ctrl.Lists(),
			activeID: m.ctrl.ActiveListID(),
			labels:   m.ctrl.LabelCatalog(),
			items:    m.ctrl.Engine().Items(),
		}
	}
}

func (m shoppingModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		if err := m.ctrl.Refresh(ctx); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return itemsDataMsg{items: m.ctrl.Engine().Items()}
	}
}

func (m shoppingModel) update(msg tea.Msg) (shoppingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case shoppingDataMsg:
		m.lists = msg.lists
		m.activeID = msg.activeID
		m.labels = msg.labels
		m.items = msg.items
		m.rebuildRows()
		return m, nil

	case itemsDataMsg:
		m.items = msg.items
		m.rebuildRows()
		return m, nil

	case listsDataMsg:
		m.lists = msg.lists
		if msg.activeID != "" {
			m.activeID = msg.activeID
		}
		return m, nil

	case labelsDataMsg:
		m.labels = msg.labels
		return m, nil

	case labelNeededMsg:
		// A freshly added item has no category yet; open the picker on it.
		m.mode = shopLabel
		m.labelTarget = msg.item.ID
		m.labelForAdd = false
		m.labelCursor = 0
		m.labelInput.SetValue("")
		return m, m.labelInput.Focus()

	case overridePickedMsg:
		m.addOverrideID = msg.label.ID
		m.addOverrideName = msg.label.Name
		m.labels = m.ctrl.LabelCatalog()
		m.labelForAdd = false
		m.mode = shopAdd
		return m, m.add.focus()

	case acDebounceMsg, acResultsMsg:
		var cmd tea.Cmd
		m.add, cmd = m.add.update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case shopAdd:
			return m.updateAdd(msg)
		case shopNote:
			return m.updateNote(msg)
		case shopLabel:
			return m.updateLabelPicker(msg)
		case shopLists:
			return m.updateListPicker(msg)
		case shopStats:
			if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Stats) {
				m.mode = shopBrowse
			}
			return m, nil
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m shoppingModel) updateBrowse(msg tea.KeyMsg) (shoppingModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rowIDs)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Add):
		m.mode = shopAdd
		m.add.reset()
		return m, m.add.focus()
	case key.Matches(msg, keys.Toggle):
		if it, ok := m.cursorItem(); ok {
			return m, m.toggleCmd(it.ID, !it.Checked)
		}
	case key.Matches(msg, keys.QtyUp):
		if it, ok := m.cursorItem(); ok {
			return m, m.adjustCmd(it.ID, 1)
		}
	case key.Matches(msg, keys.QtyDown):
		if it, ok := m.cursorItem(); ok {
			return m, m.adjustCmd(it.ID, -1)
		}
	case key.Matches(msg, keys.Note):
		if it, ok := m.cursorItem(); ok {
			m.mode = shopNote
			m.noteInput.SetValue(it.Note)
			return m, m.noteInput.Focus()
		}
	case key.Matches(msg, keys.Label):
		if it, ok := m.cursorItem(); ok {
			m.mode = shopLabel
			m.labelTarget = it.ID
			m.labelCursor = 0
			m.labelInput.SetValue("")
			return m, m.labelInput.Focus()
		}
	case key.Matches(msg, keys.Delete):
		if it, ok := m.cursorItem(); ok {
			id := it.ID
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				if err := m.ctrl.Delete(ctx, id); err != nil {
					return statusMsg{text: err.Error(), isError: true}
				}
				return itemsDataMsg{items: m.ctrl.Engine().Items()}
			}
		}
	case key.Matches(msg, keys.Clear):
		return m, func() tea.Msg {
			ctx, cancel := reqContext()
			defer cancel()
			n := m.ctrl.ClearChecked(ctx)
			if n == 0 {
				return itemsDataMsg{items: m.ctrl.Engine().Items()}
			}
			return statusMsg{text: fmt.Sprintf("Cleared %d items", n)}
		}
	case key.Matches(msg, keys.Lists):
		m.mode = shopLists
		m.listCursor = 0
		return m, nil
	case key.Matches(msg, keys.Stats):
		m.buildChart()
		m.mode = shopStats
		return m, nil
	}
	return m, nil
}

func (m shoppingModel) updateAdd(msg tea.KeyMsg) (shoppingModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.add.open {
			m.mode = shopBrowse
			m.addOverrideID, m.addOverrideName = "", ""
			return m, nil
		}
	case "tab":
		// Pick a category override for whatever gets added next.
		m.mode = shopLabel
		m.labelForAdd = true
		m.labelCursor = 0
		m.labelInput.SetValue("")
		return m, m.labelInput.Focus()
	case "enter":
		text := m.add.value()
		if text == "" {
			m.mode = shopBrowse
			m.addOverrideID, m.addOverrideName = "", ""
			return m, nil
		}
		var selected *model.Food
		if s := m.add.selected(); s != nil {
			selected = s.food
			text = s.food.Name
		}
		override := m.addOverrideID
		// The footer action and the raw text both add free text.
		m.mode = shopBrowse
		m.addOverrideID, m.addOverrideName = "", ""
		m.add.reset()
		return m, m.addCmd(text, override, selected)
	}
	var cmd tea.Cmd
	m.add, cmd = m.add.update(msg)
	return m, cmd
}

func (m shoppingModel) addCmd(text, overrideLabelID string, selected *model.Food) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		item, err := m.ctrl.Add(ctx, text, overrideLabelID, selected)
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		if item != nil {
			return labelNeededMsg{item: *item}
		}
		return itemsDataMsg{items: m.ctrl.Engine().Items()}
	}
}

func (m shoppingModel) updateNote(msg tea.KeyMsg) (shoppingModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = shopBrowse
		return m, nil
	case "enter":
		note := strings.TrimSpace(m.noteInput.Value())
		m.mode = shopBrowse
		if it, ok := m.cursorItem(); ok {
			id := it.ID
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				m.ctrl.SetNote(ctx, id, note)
				return itemsDataMsg{items: m.ctrl.Engine().Items()}
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

// filteredLabels narrows the picker by the search box text.
func (m shoppingModel) filteredLabels() []model.Label {
	q := strings.ToLower(strings.TrimSpace(m.labelInput.Value()))
	if q == "" {
		return m.labels
	}
	var out []model.Label
	for _, l := range m.labels {
		if strings.Contains(strings.ToLower(l.Name), q) {
			out = append(out, l)
		}
	}
	return out
}

func (m shoppingModel) updateLabelPicker(msg tea.KeyMsg) (shoppingModel, tea.Cmd) {
	labels := m.filteredLabels()
	// One extra row past the labels creates a category from the box text.
	maxCursor := len(labels)

	switch msg.String() {
	case "esc":
		if m.labelForAdd {
			m.labelForAdd = false
			m.mode = shopAdd
			return m, m.add.focus()
		}
		m.mode = shopBrowse
		return m, nil
	case "up":
		if m.labelCursor > 0 {
			m.labelCursor--
		}
		return m, nil
	case "down":
		if m.labelCursor < maxCursor {
			m.labelCursor++
		}
		return m, nil
	case "enter":
		if m.labelForAdd {
			if m.labelCursor < len(labels) {
				l := labels[m.labelCursor]
				m.addOverrideID, m.addOverrideName = l.ID, l.Name
				m.labelForAdd = false
				m.mode = shopAdd
				return m, m.add.focus()
			}
			name := strings.TrimSpace(m.labelInput.Value())
			if name == "" {
				m.labelForAdd = false
				m.mode = shopAdd
				return m, m.add.focus()
			}
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				label, err := m.ctrl.CreateLabel(ctx, name)
				if err != nil {
					return statusMsg{text: err.Error(), isError: true}
				}
				return overridePickedMsg{label: label}
			}
		}
		target := m.labelTarget
		m.mode = shopBrowse
		if m.labelCursor < len(labels) {
			labelID := labels[m.labelCursor].ID
			return m, m.setLabelCmd(target, labelID)
		}
		name := strings.TrimSpace(m.labelInput.Value())
		if name == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			ctx, cancel := reqContext()
			defer cancel()
			label, err := m.ctrl.CreateLabel(ctx, name)
			if err != nil {
				return statusMsg{text: err.Error(), isError: true}
			}
			if err := m.ctrl.SetLabel(ctx, target, label.ID); err != nil {
				return statusMsg{text: err.Error(), isError: true}
			}
			return itemsDataMsg{items: m.ctrl.Engine().Items()}
		}
	}

	var cmd tea.Cmd
	before := m.labelInput.Value()
	m.labelInput, cmd = m.labelInput.Update(msg)
	if m.labelInput.Value() != before {
		m.labelCursor = 0
	}
	return m, cmd
}

func (m shoppingModel) setLabelCmd(id, labelID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		if err := m.ctrl.SetLabel(ctx, id, labelID); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return itemsDataMsg{items: m.ctrl.Engine().Items()}
	}
}

func (m shoppingModel) updateListPicker(msg tea.KeyMsg) (shoppingModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.mode = shopBrowse
	case key.Matches(msg, keys.Up):
		if m.listCursor > 0 {
			m.listCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.listCursor < len(m.lists)-1 {
			m.listCursor++
		}
	case key.Matches(msg, keys.Enter):
		if m.listCursor < len(m.lists) {
			id := m.lists[m.listCursor].ID
			m.mode = shopBrowse
			return m, func() tea.Msg {
				ctx, cancel := reqContext()
				defer cancel()
				if err := m.ctrl.SelectList(ctx, id); err != nil {
					return statusMsg{text: err.Error(), isError: true}
				}
				return shoppingDataMsg{
					lists:    m.ctrl.Lists(),
					activeID: m.ctrl.ActiveListID(),
					labels:   m.ctrl.LabelCatalog(),
					items:    m.ctrl.Engine().Items(),
				}
			}
		}
	}
	return m, nil
}

func (m shoppingModel) toggleCmd(id string, checked bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		m.ctrl.Toggle(ctx, id, checked)
		return itemsDataMsg{items: m.ctrl.Engine().Items()}
	}
}

func (m shoppingModel) adjustCmd(id string, delta int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		m.ctrl.AdjustQuantity(ctx, id, delta)
		return itemsDataMsg{items: m.ctrl.Engine().Items()}
	}
}

func (m shoppingModel) cursorItem() (model.ShoppingItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rowIDs) {
		return model.ShoppingItem{}, false
	}
	return m.ctrl.Engine().Get(m.rowIDs[m.cursor])
}

func (m *shoppingModel) rebuildRows() {
	m.rowIDs = m.rowIDs[:0]
	for _, g := range shopping.GroupUnchecked(m.items) {
		for _, it := range g.Items {
			m.rowIDs = append(m.rowIDs, it.ID)
		}
	}
	for _, it := range shopping.SortChecked(m.items) {
		m.rowIDs = append(m.rowIDs, it.ID)
	}
	if m.cursor >= len(m.rowIDs) {
		m.cursor = max(0, len(m.rowIDs)-1)
	}
}

func (m *shoppingModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	m.chart = barchart.New(chartWidth, 10)

	var bars []barchart.BarData
	for _, g := range shopping.GroupUnchecked(m.items) {
		bars = append(bars, barchart.BarData{
			Label: g.Name,
			Values: []barchart.BarValue{{
				Name:  g.Name,
				Value: float64(len(g.Items)),
				Style: lipgloss.NewStyle().Foreground(colorSecondary),
			}},
		})
	}
	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m shoppingModel) view() string {
	w := m.width - 4

	switch m.mode {
	case shopLists:
		return m.renderListPicker(w)
	case shopLabel:
		return m.renderLabelPicker(w)
	case shopStats:
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Items per category"),
			"",
			m.chart.View(),
			"",
			mutedStyle.Render("  esc: back"),
		)
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Shopping — " + m.activeListName())

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if m.mode == shopAdd {
		rows = append(rows, m.add.view())
		cat := m.addOverrideName
		if cat == "" {
			cat = "auto"
		}
		rows = append(rows, mutedStyle.Render("  category: "+cat+"  (tab to change)"))
		rows = append(rows, "")
	}

	idx := 0
	for _, g := range shopping.GroupUnchecked(m.items) {
		rows = append(rows, categoryStyle.Render(g.Name))
		for _, it := range g.Items {
			rows = append(rows, m.renderItem(it, idx))
			idx++
		}
		rows = append(rows, "")
	}

	checked := shopping.SortChecked(m.items)
	if len(checked) > 0 {
		rows = append(rows, subtitleStyle.Render("Done"))
		for _, it := range checked {
			rows = append(rows, m.renderItem(it, idx))
			idx++
		}
	}

	if idx == 0 && m.mode != shopAdd {
		rows = append(rows, mutedStyle.Render("Nothing here. Press n to add an item."))
	}

	if m.mode == shopNote {
		rows = append(rows, "", subtitleStyle.Render("Note:"), m.noteInput.View())
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: add  space: check  +/-: qty  c: category  o: note  x: clear  L: lists  s: stats"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m shoppingModel) renderItem(it model.ShoppingItem, idx int) string {
	cursor := "  "
	style := normalItemStyle
	if idx == m.cursor && m.mode != shopAdd {
		cursor = "> "
		style = selectedItemStyle
	}

	box := "[ ] "
	if it.Checked {
		box = "[x] "
		if idx != m.cursor {
			style = checkedItemStyle
		}
	}

	line := cursor + box + formatQuantity(it.Quantity) + it.DisplayName()
	out := style.Render(line)
	if it.Note != "" && it.Food != nil {
		out += mutedStyle.Render("  (" + it.Note + ")")
	}
	return out
}

func (m shoppingModel) activeListName() string {
	for _, l := range m.lists {
		if l.ID == m.activeID {
			return l.Name
		}
	}
	return "no list"
}

func (m shoppingModel) renderListPicker(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Shopping Lists"))
	rows = append(rows, "")
	if len(m.lists) == 0 {
		rows = append(rows, mutedStyle.Render("No lists on the server."))
	}
	for i, l := range m.lists {
		cursor := "  "
		style := normalItemStyle
		if i == m.listCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+l.Name))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m shoppingModel) renderLabelPicker(w int) string {
	labels := m.filteredLabels()

	var rows []string
	rows = append(rows, titleStyle.Render("Pick a category"))
	rows = append(rows, "")
	rows = append(rows, m.labelInput.View())
	rows = append(rows, "")
	for i, l := range labels {
		cursor := "  "
		style := normalItemStyle
		if i == m.labelCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+l.Name))
	}
	createStyle := mutedStyle
	cursor := "  "
	if m.labelCursor == len(labels) {
		createStyle = selectedItemStyle
		cursor = "> "
	}
	createName := strings.TrimSpace(m.labelInput.Value())
	if createName == "" {
		createName = "..."
	}
	rows = append(rows, createStyle.Render(cursor+"create: "+createName))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: apply  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
