package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mealdeck/internal/model"
)

const (
	// acDebounce is how long typing has to pause before a search fires.
	acDebounce = 250 * time.Millisecond
	// acMinQuery is the shortest query worth searching for.
	acMinQuery = 2
	// acMaxResults caps the dropdown height.
	acMaxResults = 6
)

// suggestion is one dropdown row. Exactly one of food/recipe is set.
type suggestion struct {
	label  string
	food   *model.Food
	recipe *model.RecipeSummary
}

type searchFn func(query string) []suggestion

// acDebounceMsg fires after the typing pause. Stale generations are ignored.
type acDebounceMsg struct {
	id  int
	gen int
}

// acResultsMsg carries search results keyed to the query that produced them,
// so answers for abandoned queries are discarded.
type acResultsMsg struct {
	id      int
	query   string
	results []suggestion
}

// autocompleteModel is a text input with a debounced suggestion dropdown.
// The selection index ranges over [-1, len(results)+len(footer)-1]: -1 means
// the raw text, then the results, then any footer actions.
type autocompleteModel struct {
	id     int
	input  textinput.Model
	search searchFn
	footer []string

	results []suggestion
	index   int
	open    bool
	gen     int
}

func newAutocomplete(id int, placeholder string, search searchFn, footer ...string) autocompleteModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 120
	return autocompleteModel{
		id:     id,
		input:  ti,
		search: search,
		footer: footer,
		index:  -1,
	}
}

func (m *autocompleteModel) focus() tea.Cmd {
	return m.input.Focus()
}

func (m *autocompleteModel) reset() {
	m.input.SetValue("")
	m.results = nil
	m.index = -1
	m.open = false
	m.gen++
}

func (m autocompleteModel) value() string {
	return strings.TrimSpace(m.input.Value())
}

// selected returns the highlighted suggestion, nil when the raw text or a
// footer action is highlighted.
func (m autocompleteModel) selected() *suggestion {
	if !m.open || m.index < 0 || m.index >= len(m.results) {
		return nil
	}
	return &m.results[m.index]
}

// footerIndex returns which footer action is highlighted, or -1.
func (m autocompleteModel) footerIndex() int {
	if !m.open || m.index < len(m.results) {
		return -1
	}
	return m.index - len(m.results)
}

func (m autocompleteModel) maxIndex() int {
	if !m.open {
		return -1
	}
	return len(m.results) + len(m.footer) - 1
}

func (m autocompleteModel) update(msg tea.Msg) (autocompleteModel, tea.Cmd) {
	switch msg := msg.(type) {
	case acDebounceMsg:
		if msg.id != m.id || msg.gen != m.gen {
			return m, nil
		}
		query := m.value()
		if len(query) < acMinQuery {
			return m, nil
		}
		return m, func() tea.Msg {
			return acResultsMsg{id: m.id, query: query, results: m.search(query)}
		}

	case acResultsMsg:
		if msg.id != m.id || msg.query != m.value() {
			return m, nil
		}
		m.results = msg.results
		if len(m.results) > acMaxResults {
			m.results = m.results[:acMaxResults]
		}
		m.open = len(m.results) > 0 || len(m.footer) > 0
		if m.index > m.maxIndex() {
			m.index = m.maxIndex()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if m.index > -1 {
				m.index--
			}
			return m, nil
		case "down":
			if m.index < m.maxIndex() {
				m.index++
			}
			return m, nil
		case "esc":
			if m.open {
				m.open = false
				m.index = -1
				return m, nil
			}
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.index = -1
		m.gen++
		if len(m.value()) < acMinQuery {
			m.results = nil
			m.open = false
			return m, cmd
		}
		gen := m.gen
		debounce := tea.Tick(acDebounce, func(time.Time) tea.Msg {
			return acDebounceMsg{id: m.id, gen: gen}
		})
		return m, tea.Batch(cmd, debounce)
	}
	return m, cmd
}

func (m autocompleteModel) view() string {
	rows := []string{m.input.View()}
	if m.open {
		for i, s := range m.results {
			style := normalItemStyle
			cursor := "  "
			if i == m.index {
				style = selectedItemStyle
				cursor = "> "
			}
			rows = append(rows, style.Render(cursor+s.label))
		}
		for i, f := range m.footer {
			style := mutedStyle
			cursor := "  "
			if len(m.results)+i == m.index {
				style = selectedItemStyle
				cursor = "> "
			}
			rows = append(rows, style.Render(cursor+f))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
