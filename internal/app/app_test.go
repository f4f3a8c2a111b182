package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/watertracker/internal/ledger"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/notify"
	"github.com/nhle/watertracker/internal/reminder"
	"github.com/nhle/watertracker/internal/ui/command"
	"github.com/nhle/watertracker/tests/testutil"
)

func newTestApp(t *testing.T) (Model, Deps) {
	t.Helper()
	s := testutil.NewTestStore(t)
	q := notify.NewQueue(s, true, nil)
	d := Deps{
		Config:     model.AppConfig{Ledger: model.LedgerConfig{QuickAmounts: []int{250, 500}}},
		ConfigPath: t.TempDir() + "/config.yaml",
		Store:      s,
		Ledger:     ledger.New(s),
		Scheduler:  reminder.New(q, s),
		Queue:      q,
	}
	m := New(d)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), d
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabCycling(t *testing.T) {
	m, _ := newTestApp(t)
	assert.Equal(t, TabHome, m.currentTab)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabHistory, m.currentTab)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, TabSettings, m.currentTab)
}

func TestHelpOverlayToggles(t *testing.T) {
	m, _ := newTestApp(t)

	m = press(t, m, runes("?"))
	assert.Equal(t, OverlayHelp, m.overlay)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(t, m, runes("?"))
	assert.Equal(t, OverlayNone, m.overlay)
}

func TestHeaderShowsUnreadCount(t *testing.T) {
	m, _ := newTestApp(t)

	updated, _ := m.Update(unreadCountMsg{count: 2})
	m = updated.(Model)
	assert.Contains(t, m.View(), "Water Tracker [2 new]")
}

func TestFetchUnreadCount(t *testing.T) {
	m, d := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, d.Store.CreateNotification(ctx, model.Notification{
		Kind:      model.NotificationGoalAchieved,
		Title:     "Daily goal reached",
		CreatedAt: time.Now(),
	}))

	msg := m.fetchUnreadCount()()
	assert.Equal(t, unreadCountMsg{count: 1}, msg)
}

func TestCommandGotoSwitchesTab(t *testing.T) {
	m, _ := newTestApp(t)

	updated, _ := m.Update(command.CommandMsg{Command: command.Command{Kind: command.KindGoto, Tab: "inbox"}})
	m = updated.(Model)
	assert.Equal(t, TabInbox, m.currentTab)
	assert.Equal(t, OverlayNone, m.overlay)
}

func TestCommandGoalUpdatesLedger(t *testing.T) {
	m, d := newTestApp(t)

	cmd := m.executeCommand(command.Command{Kind: command.KindGoal, Amount: 2400})
	require.NotNil(t, cmd)
	msg, ok := cmd().(commandResultMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)

	goal, err := d.Ledger.DailyGoal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2400, goal)

	updated, _ := m.Update(msg)
	assert.Equal(t, "Daily goal set to 2400 ml", updated.(Model).statusMsg)
}

func TestCommandGoalRejectsZero(t *testing.T) {
	m, _ := newTestApp(t)

	msg := m.executeCommand(command.Command{Kind: command.KindGoal, Amount: 0})().(commandResultMsg)
	assert.ErrorIs(t, msg.err, model.ErrInvalidGoal)
}

func TestStartupApplyRecordsFailure(t *testing.T) {
	m, _ := newTestApp(t)

	updated, _ := m.Update(startupAppliedMsg{err: model.ErrStorage})
	assert.Contains(t, updated.(Model).statusMsg, "Reminders not scheduled")
}
