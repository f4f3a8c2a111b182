package history

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/watertracker/internal/keys"
	"github.com/nhle/watertracker/internal/ledger"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/theme"
)

// chartDays is how many days the totals chart covers.
const chartDays = 7

type historyLoadedMsg struct {
	days   []model.DayHistory
	totals []model.DayTotal
	goal   int
	units  model.Units
	err    error
}

// dayItem wraps a DayHistory for the bubbles list.
type dayItem struct {
	day   model.DayHistory
	goal  int
	units model.Units
	now   time.Time
}

func (i dayItem) FilterValue() string { return i.day.Date.Format("2006-01-02") }

// dayDelegate renders one line per day.
type dayDelegate struct{}

func (d dayDelegate) Height() int                             { return 1 }
func (d dayDelegate) Spacing() int                            { return 0 }
func (d dayDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d dayDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(dayItem)
	if !ok {
		return
	}

	total := it.day.Total()
	pct := ledger.PercentageOf(total, it.goal)
	mark := "○"
	if total >= it.goal {
		mark = "●"
	}

	line := fmt.Sprintf("%s %-22s %10s  %s",
		theme.ProgressStyle(pct).Render(mark),
		DayLabel(it.day.Date, it.now),
		it.units.Format(total),
		theme.DimmedStyle.Render(fmt.Sprintf("%d drinks", len(it.day.Entries))),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

// Model is the history view: a week chart and the per-day log.
type Model struct {
	ledger   *ledger.Ledger
	keys     *keys.KeyMap
	list     list.Model
	days     []model.DayHistory
	totals   []model.DayTotal
	goal     int
	units    model.Units
	expanded bool
	err      error
	width    int
	height   int
}

// New creates the history view.
func New(l *ledger.Ledger, k *keys.KeyMap, width, height int) Model {
	lst := list.New([]list.Item{}, dayDelegate{}, width, height)
	lst.Title = "History"
	lst.SetShowStatusBar(false)
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.Styles.Title = theme.HeaderStyle

	return Model{
		ledger: l,
		keys:   k,
		list:   lst,
		goal:   model.DefaultDailyGoal,
		units:  model.UnitsMetric,
		width:  width,
		height: height,
	}
}

// Init loads the history.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		// A failed read still arrives with an empty, non-nil day list.
		m.err = msg.err
		m.days = msg.days
		m.totals = msg.totals
		if msg.goal > 0 {
			m.goal = msg.goal
		}
		m.units = msg.units

		now := time.Now()
		items := make([]list.Item, len(m.days))
		for i, d := range m.days {
			items[i] = dayItem{day: d, goal: m.goal, units: m.units, now: now}
		}
		m.resizeList()
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			m.expanded = !m.expanded
			m.resizeList()
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the history.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderChart())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render("History is unavailable right now."))
		b.WriteString("\n")
		b.WriteString(theme.DimmedStyle.Render(m.err.Error()))
		return m.frame(b.String())
	}
	if len(m.days) == 0 {
		b.WriteString(theme.HelpStyle.Render("No history yet. Log a drink on the Home tab."))
		return m.frame(b.String())
	}

	b.WriteString(m.list.View())
	if m.expanded {
		b.WriteString("\n")
		b.WriteString(m.renderSelectedDay())
	}
	return m.frame(b.String())
}

func (m Model) renderChart() string {
	if len(m.totals) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Last 7 days"))
	b.WriteString("\n")

	barWidth := m.width - 30
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 10 {
		barWidth = 10
	}
	for _, d := range m.totals {
		pct := ledger.PercentageOf(d.Total, m.goal)
		filled := int(pct / 100 * float64(barWidth))
		bar := theme.ProgressStyle(pct).Render(strings.Repeat("▇", filled)) +
			theme.DimmedStyle.Render(strings.Repeat("·", barWidth-filled))
		b.WriteString(fmt.Sprintf("%s %s %s\n", d.Date.Format("Mon"), bar, m.units.Format(d.Total)))
	}
	return b.String()
}

func (m Model) renderSelectedDay() string {
	it, ok := m.list.SelectedItem().(dayItem)
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(it.day.Date.Format("Monday, January 2")))
	b.WriteString("\n")
	for _, e := range it.day.Entries {
		b.WriteString(theme.ListItemStyle.Render(fmt.Sprintf("%s  %-10s %s",
			e.Timestamp.Format("15:04"),
			m.units.Format(e.Amount),
			theme.DimmedStyle.Render(e.Beverage),
		)))
		b.WriteString("\n")
	}
	return theme.PanelStyle.Render(b.String())
}

func (m Model) frame(content string) string {
	return lipgloss.NewStyle().Padding(0, 2).Width(m.width).Render(content)
}

// DayLabel names a calendar day relative to now.
func DayLabel(day, now time.Time) string {
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, day.Location())
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.After(today.AddDate(0, 0, -7)):
		return day.Format("Monday")
	default:
		return day.Format("Jan 2") + " (" + humanize.RelTime(day, today, "ago", "from now") + ")"
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.resizeList()
}

func (m *Model) resizeList() {
	h := m.height - chartDays - 4
	if m.expanded {
		h -= 8
	}
	if h < 4 {
		h = 4
	}
	m.list.SetSize(m.width-4, h)
}

// Load returns a command that reads the history, the week's totals and
// the display settings.
func (m Model) Load() tea.Cmd {
	l := m.ledger
	return func() tea.Msg {
		ctx := context.Background()
		days, err := l.History(ctx)
		if err != nil {
			return historyLoadedMsg{days: days, units: model.UnitsMetric, err: err}
		}
		totals, err := l.DailyTotals(ctx, chartDays)
		if err != nil {
			return historyLoadedMsg{days: days, units: model.UnitsMetric, err: err}
		}
		goal, _ := l.DailyGoal(ctx)
		units, _ := l.Units(ctx)
		return historyLoadedMsg{days: days, totals: totals, goal: goal, units: units}
	}
}
