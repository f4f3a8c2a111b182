package tracker

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/watertracker/internal/keys"
	"github.com/nhle/watertracker/internal/ledger"
	"github.com/nhle/watertracker/tests/testutil"
)

func TestProgressBarWidth(t *testing.T) {
	plain := lipgloss.NewStyle()
	for _, pct := range []float64{0, 33, 100, 150} {
		bar := ProgressBar(pct, 20, plain)
		assert.Equal(t, 20, lipgloss.Width(bar), "pct %v", pct)
	}
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, validateAmount(" 250 "))
	assert.Error(t, validateAmount("0"))
	assert.Error(t, validateAmount("-10"))
	assert.Error(t, validateAmount("lots"))
}

func TestQuickAddRecordsEntry(t *testing.T) {
	s := testutil.NewTestStore(t)
	l := ledger.New(s, ledger.WithClock(func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	}))
	m := New(l, keys.DefaultKeyMap(), []int{100, 250}, 80, 24)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	require.NotNil(t, cmd)

	msg, ok := cmd().(EntryAddedMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Equal(t, 250, msg.Receipt.Entry.Amount)

	total, err := l.CurrentDailyTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250, total)

	// Keys beyond the configured amounts do nothing.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("7")})
	assert.Nil(t, cmd)
}
