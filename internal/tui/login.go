package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mealdeck/internal/auth"
)

type loginModel struct {
	session *auth.Session
	width   int
	height  int

	form    *huh.Form
	spin    spinner.Model
	loading bool
	errText string

	// Form field pointers (survive value copies)
	formEmail    *string
	formPassword *string
	formRemember *bool
}

func newLoginModel(session *auth.Session) loginModel {
	email, password, remember := "", "", false
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := loginModel{
		session:      session,
		spin:         sp,
		formEmail:    &email,
		formPassword: &password,
		formRemember: &remember,
	}
	m.form = m.newForm()
	return m
}

func (m loginModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(m.formEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(m.formPassword),
			huh.NewConfirm().Title("Stay logged in?").Value(m.formRemember),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (m *loginModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m loginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginFailedMsg:
		m.loading = false
		m.errText = msg.reason
		*m.formPassword = ""
		m.form = m.newForm()
		return m, m.form.Init()
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		_ = msg
	}

	if m.loading {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.loading = true
		m.errText = ""
		email, password, remember := *m.formEmail, *m.formPassword, *m.formRemember
		login := func() tea.Msg {
			ctx, cancel := reqContext()
			defer cancel()
			if err := m.session.Login(ctx, email, password, remember); err != nil {
				return loginFailedMsg{reason: err.Error()}
			}
			return loggedInMsg{}
		}
		return m, tea.Batch(cmd, login, m.spin.Tick)
	}

	return m, cmd
}

func (m loginModel) view() string {
	title := titleStyle.Render("Sign in")

	var body string
	if m.loading {
		body = m.spin.View() + mutedStyle.Render(" Signing in...")
	} else {
		body = m.form.View()
	}

	rows := []string{title, "", body}
	if m.errText != "" {
		rows = append(rows, "", errorStyle.Render(m.errText))
	}

	panel := activePanelStyle.Width(min(m.width-4, 60)).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
