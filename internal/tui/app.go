package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mealdeck/internal/api"
	"github.com/sadopc/mealdeck/internal/auth"
	"github.com/sadopc/mealdeck/internal/export"
	"github.com/sadopc/mealdeck/internal/mealplan"
	"github.com/sadopc/mealdeck/internal/resolve"
	"github.com/sadopc/mealdeck/internal/shopping"
	"github.com/sadopc/mealdeck/internal/store"
	"github.com/sadopc/mealdeck/internal/transfer"
)

// App is the root Bubble Tea model.
type App struct {
	session *auth.Session
	width   int
	height  int

	loggedIn   bool
	activeView viewState
	tab        *store.Cell[int]

	showHelp       bool
	exportPicking  bool
	exportCursor   int
	transferActive bool

	login loginModel
	plan  planModel
	shop  shoppingModel
	xfer  transferModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(
	session *auth.Session,
	client *api.Client,
	shopCtrl *shopping.Controller,
	planCtrl *mealplan.Controller,
	xferCtrl *transfer.Controller,
	resolver *resolve.Resolver,
	tab *store.Cell[int],
) App {
	h := help.New()
	h.ShowAll = false

	activeList := shopCtrl.ActiveListID

	a := App{
		session:    session,
		loggedIn:   session.LoggedIn(),
		activeView: viewState(tab.Get()),
		tab:        tab,
		login:      newLoginModel(session),
		plan:       newPlanModel(planCtrl, client, activeList),
		shop:       newShoppingModel(shopCtrl, resolver),
		xfer:       newTransferModel(xferCtrl, resolver, activeList),
		help:       h,
	}
	if a.activeView != viewMealPlan && a.activeView != viewShopping {
		a.activeView = viewMealPlan
	}
	return a
}

func (a App) Init() tea.Cmd {
	if !a.loggedIn {
		return a.login.Init()
	}
	return tea.Batch(a.plan.loadData(), a.shop.loadData())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.login.setSize(a.width, a.height)
		a.plan.setSize(a.width, contentHeight)
		a.shop.setSize(a.width, contentHeight)
		a.xfer.setSize(a.width, contentHeight)
		return a, nil

	case loggedInMsg:
		a.loggedIn = true
		a.status = ""
		return a, tea.Batch(a.plan.loadData(), a.shop.loadData())

	case sessionExpiredMsg:
		a.loggedIn = false
		a.login = newLoginModel(a.session)
		a.login.setSize(a.width, a.height)
		a.status = "Session expired, sign in again"
		a.statusErr = true
		return a, a.login.Init()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case bufferLoadedMsg:
		a.xfer.load(msg.recipe)
		a.transferActive = true
		return a, nil

	case transferClosedMsg:
		a.transferActive = false
		return a, a.shop.refresh()

	case transferDoneMsg:
		a.transferActive = false
		if msg.failed > 0 {
			a.status = fmt.Sprintf("Added %d items, %d failed", msg.sent, msg.failed)
			a.statusErr = true
		} else {
			a.status = fmt.Sprintf("Added %d items to the shopping list", msg.sent)
			a.statusErr = false
		}
		a.activeView = viewShopping
		a.tab.Set(int(a.activeView))
		return a, a.shop.refresh()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case tea.KeyMsg:
		if !a.loggedIn {
			var cmd tea.Cmd
			a.login, cmd = a.login.update(msg)
			return a, cmd
		}

		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		if a.transferActive {
			var cmd tea.Cmd
			a.xfer, cmd = a.xfer.update(msg)
			return a, cmd
		}

		// A view capturing text input gets keys before the global bindings.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			if a.activeView == viewShopping {
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Logout):
			a.session.Logout()
			a.loggedIn = false
			a.login = newLoginModel(a.session)
			a.login.setSize(a.width, a.height)
			a.status = ""
			return a, a.login.Init()
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewMealPlan
			a.tab.Set(int(a.activeView))
			return a, a.plan.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewShopping
			a.tab.Set(int(a.activeView))
			return a, a.shop.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 2
			a.tab.Set(int(a.activeView))
			if a.activeView == viewMealPlan {
				return a, a.plan.loadData()
			}
			return a, a.shop.refresh()
		}
		return a.updateActiveView(msg)
	}

	// Background and data messages go to everyone who might care.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if !a.loggedIn {
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}
	a.plan, cmd = a.plan.update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	a.shop, cmd = a.shop.update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	if a.transferActive {
		a.xfer, cmd = a.xfer.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewMealPlan:
		a.plan, cmd = a.plan.update(msg)
	case viewShopping:
		a.shop, cmd = a.shop.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewMealPlan:
		return a.plan.mode == planAdd
	case viewShopping:
		return a.shop.mode != shopBrowse && a.shop.mode != shopStats
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if !a.loggedIn {
		return a.login.view()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch {
	case a.transferActive:
		content = a.xfer.view()
	case a.activeView == viewMealPlan:
		content = a.plan.view()
	default:
		content = a.shop.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("mealdeck")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	items := a.shop.items
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("mealdeck-list-%s.csv", dateStr))
			if err := export.ToCSV(items, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("mealdeck-list-%s.json", dateStr))
			if err := export.ToJSON(items, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
