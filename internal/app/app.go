package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/watertracker/internal/keys"
	"github.com/nhle/watertracker/internal/ledger"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/notify"
	"github.com/nhle/watertracker/internal/reminder"
	"github.com/nhle/watertracker/internal/store"
	"github.com/nhle/watertracker/internal/ui"
	"github.com/nhle/watertracker/internal/ui/command"
	helpview "github.com/nhle/watertracker/internal/ui/help"
	"github.com/nhle/watertracker/internal/ui/history"
	"github.com/nhle/watertracker/internal/ui/inbox"
	"github.com/nhle/watertracker/internal/ui/reminders"
	"github.com/nhle/watertracker/internal/ui/settings"
	"github.com/nhle/watertracker/internal/ui/tracker"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// startupAppliedMsg is sent once the saved plan has been re-applied at
// startup.
type startupAppliedMsg struct {
	err error
}

// commandResultMsg reports the outcome of a palette command that changed
// stored preferences.
type commandResultMsg struct {
	status string
	err    error
}

// Tab is one of the top-level views.
type Tab int

const (
	TabHome Tab = iota
	TabHistory
	TabReminders
	TabInbox
	TabSettings
)

var tabNames = []string{"Home", "History", "Reminders", "Inbox", "Settings"}

// Overlay is a view drawn over the active tab.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayCommand
)

// Deps are the services the UI drives.
type Deps struct {
	Config     model.AppConfig
	ConfigPath string
	Store      store.Store
	Ledger     *ledger.Ledger
	Scheduler  *reminder.Scheduler
	Queue      *notify.Queue
	Dispatcher *notify.Dispatcher
	Logger     *slog.Logger
}

// Model is the root Bubble Tea model that manages tab routing, overlays,
// layout, and the background reminder dispatcher.
type Model struct {
	currentTab    Tab
	overlay       Overlay
	layout        ui.Layout
	deps          Deps
	logger        *slog.Logger
	keys          *keys.KeyMap
	trackerView   tracker.Model
	historyView   history.Model
	remindersView reminders.Model
	inboxView     inbox.Model
	settingsView  settings.Model
	helpView      helpview.Model
	commandView   command.Model
	ready         bool
	unreadCount   int
	statusMsg     string
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return Model{
		currentTab:    TabHome,
		deps:          d,
		logger:        logger,
		keys:          k,
		trackerView:   tracker.New(d.Ledger, k, d.Config.Ledger.QuickAmounts, 80, 24),
		historyView:   history.New(d.Ledger, k, 80, 24),
		remindersView: reminders.New(d.Scheduler, d.Queue, k, 80, 24),
		inboxView:     inbox.New(d.Store, k, 80, 24),
		settingsView:  settings.New(d.Ledger, k, d.Config, d.ConfigPath, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
	}
}

// Init loads every view and re-applies the saved reminder plan so the
// queue covers the days ahead, then starts the dispatcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.trackerView.Init(),
		m.historyView.Init(),
		m.remindersView.Init(),
		m.inboxView.Init(),
		m.settingsView.Init(),
		m.fetchUnreadCount(),
		m.applyAtStartup(),
	)
}

// Update handles messages and dispatches to the views.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.trackerView.SetSize(w, h)
		m.historyView.SetSize(w, h)
		m.remindersView.SetSize(w, h)
		m.inboxView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward so huh forms can calculate their layout.
		return m.broadcast(msg)

	case startupAppliedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Reminders not scheduled: %v", msg.err)
		}
		cmds := []tea.Cmd{m.remindersView.Load()}
		if m.deps.Dispatcher != nil {
			cmds = append(cmds, m.deps.Dispatcher.Start())
		}
		return m, tea.Batch(cmds...)

	case notify.DeliveredMsg:
		switch {
		case msg.Error != nil && len(msg.Reminders) == 0:
			m.statusMsg = fmt.Sprintf("Reminder delivery failed: %v", msg.Error)
		case len(msg.Reminders) > 0:
			r := msg.Reminders[0]
			m.statusMsg = fmt.Sprintf("💧 %s (%s)", r.Title, r.FiresAt.Local().Format("15:04"))
			if msg.Error != nil {
				m.statusMsg += fmt.Sprintf(", push failed: %v", msg.Error)
			}
		}
		return m, tea.Batch(
			m.deps.Dispatcher.WaitForNextResult(),
			m.fetchUnreadCount(),
			m.remindersView.Load(),
			m.inboxView.Load(),
		)

	case notify.RefreshedMsg:
		if msg.Error != nil {
			m.statusMsg = fmt.Sprintf("Reminder refresh failed: %v", msg.Error)
		}
		return m, tea.Batch(m.deps.Dispatcher.WaitForNextResult(), m.remindersView.Load())

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case tracker.EntryAddedMsg:
		var cmd tea.Cmd
		m.trackerView, cmd = m.trackerView.Update(msg)
		cmds := []tea.Cmd{cmd, m.historyView.Load()}
		if msg.Err == nil && msg.Receipt.GoalReached {
			cmds = append(cmds, m.fetchUnreadCount(), m.inboxView.Load())
		}
		return m, tea.Batch(cmds...)

	case reminders.ScheduleAppliedMsg:
		var cmd tea.Cmd
		m.remindersView, cmd = m.remindersView.Update(msg)
		if m.deps.Dispatcher != nil {
			m.deps.Dispatcher.Trigger()
		}
		return m, cmd

	case settings.SavedMsg:
		var cmd tea.Cmd
		m.settingsView, cmd = m.settingsView.Update(msg)
		if msg.Err != nil {
			return m, cmd
		}
		m.deps.Config = msg.Config
		m.trackerView.SetQuickAmounts(msg.Config.Ledger.QuickAmounts)
		if m.deps.Queue != nil {
			m.deps.Queue.SetEnabled(msg.Config.Notifications.Enabled)
		}
		return m, tea.Batch(cmd, m.trackerView.Load(), m.historyView.Load(), m.reapply())

	case inbox.ReadChangedMsg:
		return m, m.fetchUnreadCount()

	case commandResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = msg.status
		}
		return m, tea.Batch(m.trackerView.Load(), m.historyView.Load(), m.settingsView.Load())

	case command.CommandMsg:
		m.overlay = OverlayNone
		return m, m.executeCommand(msg.Command)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.broadcast(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	switch m.overlay {
	case OverlayCommand:
		if key.Matches(msg, m.keys.Back) {
			m.overlay = OverlayNone
			return m, nil
		}
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	case OverlayHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.overlay = OverlayNone
		}
		return m, nil
	}

	// Forms own the keyboard while open.
	if m.inputActive() {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil
	case key.Matches(msg, m.keys.Command):
		m.overlay = OverlayCommand
		return m, m.commandView.Focus()
	case key.Matches(msg, m.keys.NextTab):
		m.currentTab = (m.currentTab + 1) % Tab(len(tabNames))
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.currentTab = (m.currentTab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return m, nil
	}

	return m.updateActiveView(msg)
}

// inputActive reports whether the active tab has a form open.
func (m Model) inputActive() bool {
	switch m.currentTab {
	case TabHome:
		return m.trackerView.InputActive()
	case TabReminders:
		return m.remindersView.InputActive()
	case TabSettings:
		return m.settingsView.InputActive()
	}
	return false
}

// updateActiveView dispatches the message to the current tab.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentTab {
	case TabHome:
		m.trackerView, cmd = m.trackerView.Update(msg)
	case TabHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case TabReminders:
		m.remindersView, cmd = m.remindersView.Update(msg)
	case TabInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case TabSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// broadcast hands a non-key message to every tab. Views load in the
// background, so their results must arrive whichever tab is showing.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 5)
	m.trackerView, cmds[0] = m.trackerView.Update(msg)
	m.historyView, cmds[1] = m.historyView.Update(msg)
	m.remindersView, cmds[2] = m.remindersView.Update(msg)
	m.inboxView, cmds[3] = m.inboxView.Update(msg)
	m.settingsView, cmds[4] = m.settingsView.Update(msg)
	return m, tea.Batch(cmds...)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "💧 Water Tracker"
	if m.unreadCount > 0 {
		title = fmt.Sprintf("💧 Water Tracker [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(title, time.Now().Format("Mon Jan 2"))
	tabs := m.layout.RenderTabs(tabNames, map[int]int{int(TabInbox): m.unreadCount}, int(m.currentTab))
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.statusMsg)

	return m.layout.RenderWithFrame(header, tabs, m.renderContent(), statusBar)
}

// renderContent returns the overlay or the active tab.
func (m Model) renderContent() string {
	switch m.overlay {
	case OverlayHelp:
		return m.helpView.View()
	case OverlayCommand:
		return m.commandView.View()
	}

	switch m.currentTab {
	case TabHome:
		return m.trackerView.View()
	case TabHistory:
		return m.historyView.View()
	case TabReminders:
		return m.remindersView.View()
	case TabInbox:
		return m.inboxView.View()
	case TabSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.overlay {
	case OverlayHelp:
		return "? close help | esc back"
	case OverlayCommand:
		return "enter execute | esc back"
	}
	if m.inputActive() {
		return "enter submit | esc cancel"
	}

	switch m.currentTab {
	case TabHistory:
		return "j/k move | enter details | r refresh | tab next"
	case TabReminders:
		return "e edit | space on/off | r re-apply | tab next"
	case TabInbox:
		return "j/k move | enter read | m read all | tab next"
	case TabSettings:
		return "e edit | tab next"
	default:
		return "1-9 quick add | a custom | : command | ? help | q quit"
	}
}

func (m Model) quit() tea.Cmd {
	if m.deps.Dispatcher != nil {
		m.deps.Dispatcher.Stop()
	}
	return tea.Quit
}

// fetchUnreadCount returns a tea.Cmd that queries the store for the
// number of unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.deps.Store
	return func() tea.Msg {
		notifications, err := s.GetUnreadNotifications(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notifications)}
	}
}

func (m Model) applyAtStartup() tea.Cmd {
	s := m.deps.Scheduler
	logger := m.logger
	return func() tea.Msg {
		_, err := s.Refresh(context.Background(), time.Now())
		if err != nil {
			logger.Error("applying reminder plan at startup", "error", err)
		}
		return startupAppliedMsg{err: err}
	}
}

// reapply re-applies the saved plan, for when delivery settings change.
func (m Model) reapply() tea.Cmd {
	s := m.deps.Scheduler
	return func() tea.Msg {
		sched, err := s.Refresh(context.Background(), time.Now())
		return reminders.ScheduleAppliedMsg{Schedule: sched, Err: err}
	}
}

// executeCommand handles a parsed command from the palette.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	l := m.deps.Ledger
	s := m.deps.Scheduler

	switch c.Kind {
	case command.KindAdd:
		m.currentTab = TabHome
		return m.trackerView.Add(c.Amount, c.Beverage)

	case command.KindGoal:
		return func() tea.Msg {
			err := l.SetDailyGoal(context.Background(), c.Amount)
			return commandResultMsg{status: fmt.Sprintf("Daily goal set to %d ml", c.Amount), err: err}
		}

	case command.KindUnits:
		return func() tea.Msg {
			err := l.SetUnits(context.Background(), c.Units)
			return commandResultMsg{status: fmt.Sprintf("Units set to %s", c.Units), err: err}
		}

	case command.KindReminders:
		return func() tea.Msg {
			ctx := context.Background()
			plan, err := s.LoadPlan(ctx)
			if err != nil {
				return reminders.ScheduleAppliedMsg{Err: err}
			}
			plan.Enabled = c.Enabled
			sched, err := s.Save(ctx, plan, time.Now())
			return reminders.ScheduleAppliedMsg{Schedule: sched, Err: err}
		}

	case command.KindGoto:
		for i, name := range tabNames {
			if strings.EqualFold(name, c.Tab) {
				m.currentTab = Tab(i)
			}
		}
		return nil

	case command.KindRefresh:
		if m.deps.Dispatcher != nil {
			m.deps.Dispatcher.Trigger()
		}
		return tea.Batch(
			m.trackerView.Load(),
			m.historyView.Load(),
			m.remindersView.Load(),
			m.inboxView.Load(),
			m.fetchUnreadCount(),
		)

	case command.KindReadAll:
		return m.inboxView.MarkAllRead()

	case command.KindQuit:
		return m.quit()
	}
	return nil
}
