package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/watertracker/internal/keys"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/theme"
)

// pageSize caps how many notifications are loaded.
const pageSize = 100

// Store is the notifications log.
type Store interface {
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// ReadChangedMsg signals that the unread count may have changed.
type ReadChangedMsg struct{}

type notificationsLoadedMsg struct {
	items []model.Notification
	err   error
}

type markedMsg struct{ err error }

// Model lists delivered reminders and goal events.
type Model struct {
	store       Store
	keys        *keys.KeyMap
	items       []model.Notification
	selectedIdx int
	statusMsg   string
	err         error
	width       int
	height      int
}

// New creates the inbox view.
func New(s Store, k *keys.KeyMap, width, height int) Model {
	return Model{store: s, keys: k, width: width, height: height}
}

// Init loads the notifications.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationsLoadedMsg:
		m.items = msg.items
		m.err = msg.err
		if m.selectedIdx >= len(m.items) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.items) - 1
		}
		return m, nil

	case markedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = ""
		}
		return m, tea.Batch(m.Load(), func() tea.Msg { return ReadChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.items) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.items) == 0 || m.items[m.selectedIdx].Read {
			return m, nil
		}
		return m, m.markRead(m.items[m.selectedIdx].ID)

	case key.Matches(msg, m.keys.MarkRead):
		return m, m.MarkAllRead()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	}
	return m, nil
}

// View renders the inbox.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Notifications"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	if len(m.items) == 0 {
		b.WriteString(theme.HelpStyle.Render("No notifications yet."))
	}

	now := time.Now()
	visible := m.height - 8
	if visible < 3 {
		visible = 3
	}
	start := 0
	if m.selectedIdx >= visible {
		start = m.selectedIdx - visible + 1
	}
	for i := start; i < len(m.items) && i < start+visible; i++ {
		n := m.items[i]
		dot := " "
		if !n.Read {
			dot = lipgloss.NewStyle().Foreground(theme.ColorCyan).Render("•")
		}
		line := fmt.Sprintf("%s %s %s  %s",
			dot,
			theme.NotificationKindStyle(string(n.Kind)).Render(kindLabel(n.Kind)),
			n.Title,
			theme.DimmedStyle.Render(humanize.RelTime(n.CreatedAt, now, "ago", "from now")),
		)
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusMsgStyle.Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func kindLabel(k model.NotificationKind) string {
	switch k {
	case model.NotificationReminder:
		return "REM"
	case model.NotificationGoalAchieved:
		return "GOAL"
	default:
		return strings.ToUpper(string(k))
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Load returns a command that reads the newest notifications.
func (m Model) Load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		items, err := s.GetNotifications(context.Background(), pageSize)
		return notificationsLoadedMsg{items: items, err: err}
	}
}

// MarkAllRead returns a command that marks every notification read.
func (m Model) MarkAllRead() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return markedMsg{err: s.MarkAllNotificationsRead(context.Background())}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return markedMsg{err: s.MarkNotificationRead(context.Background(), id)}
	}
}
