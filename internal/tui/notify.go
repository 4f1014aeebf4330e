package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/mealdeck/internal/model"
)

// Notifier forwards background events into the running program: failed
// optimistic writes, mirror repaints from cell subscriptions, and session
// expiry from the refresh cycle. Bind is called once the program exists;
// events before that are dropped.
type Notifier struct {
	mu sync.Mutex
	p  *tea.Program
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Bind(p *tea.Program) {
	n.mu.Lock()
	n.p = p
	n.mu.Unlock()
}

func (n *Notifier) send(msg tea.Msg) {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Error surfaces a failure in the status bar.
func (n *Notifier) Error(text string) {
	n.send(statusMsg{text: text, isError: true})
}

// Items repaints the shopping view after a mirror change.
func (n *Notifier) Items(items []model.ShoppingItem) {
	n.send(itemsDataMsg{items: items})
}

// SessionExpired drops the UI back to the login screen.
func (n *Notifier) SessionExpired() {
	n.send(sessionExpiredMsg{})
}
