package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/watertracker/internal/keys"
	"github.com/nhle/watertracker/internal/ledger"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/theme"
)

// EntryAddedMsg is sent after an add attempt completes.
type EntryAddedMsg struct {
	Receipt ledger.Receipt
	Err     error
}

type progressLoadedMsg struct {
	progress ledger.Progress
	units    model.Units
	err      error
}

type formBindings struct {
	amount   string
	beverage string
}

// Model is the home view: today's progress and quick add.
type Model struct {
	ledger    *ledger.Ledger
	keys      *keys.KeyMap
	quick     []int
	progress  ledger.Progress
	units     model.Units
	loaded    bool
	adding    bool
	form      *huh.Form
	fb        *formBindings
	banner    string
	statusMsg string
	err       error
	width     int
	height    int
}

// New creates the tracker view.
func New(l *ledger.Ledger, k *keys.KeyMap, quick []int, width, height int) Model {
	if len(quick) > 9 {
		quick = quick[:9]
	}
	return Model{
		ledger: l,
		keys:   k,
		quick:  quick,
		units:  model.UnitsMetric,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init loads today's progress.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// InputActive reports whether a form has keyboard focus.
func (m Model) InputActive() bool {
	return m.adding
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressLoadedMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.progress = msg.progress
			m.units = msg.units
			if !m.progress.Reached() {
				m.banner = ""
			}
		}
		return m, nil

	case EntryAddedMsg:
		if msg.Err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.Err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Added %s of %s", m.units.Format(msg.Receipt.Entry.Amount), msg.Receipt.Entry.Beverage)
		if msg.Receipt.GoalReached {
			m.banner = "Daily goal reached! You're well hydrated!"
		}
		return m, m.Load()

	case tea.KeyMsg:
		if m.adding {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.adding {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.QuickAdd):
		i, err := strconv.Atoi(msg.String())
		if err != nil || i < 1 || i > len(m.quick) {
			return m, nil
		}
		return m, m.Add(m.quick[i-1], model.DefaultBeverage)

	case key.Matches(msg, m.keys.AddCustom):
		m.fb.amount = ""
		m.fb.beverage = model.DefaultBeverage
		m.form = m.buildForm()
		m.adding = true
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Amount (ml)").
				Placeholder("250").
				Value(&m.fb.amount).
				Validate(validateAmount),
			huh.NewInput().
				Title("Drink").
				Placeholder(model.DefaultBeverage).
				Value(&m.fb.beverage),
		),
	).WithWidth(m.formWidth())
}

func validateAmount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number of milliliters")
	}
	if n <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.adding = false
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.adding = false
		amount, _ := strconv.Atoi(strings.TrimSpace(m.fb.amount))
		return m, m.Add(amount, m.fb.beverage)
	case huh.StateAborted:
		m.adding = false
		return m, nil
	}
	return m, cmd
}

// View renders the tracker.
func (m Model) View() string {
	if m.adding && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Today"))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(theme.DimmedStyle.Render("Loading..."))
		return m.frame(b.String())
	}
	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("Could not load today's progress: %v", m.err)))
		return m.frame(b.String())
	}

	p := m.progress
	pctStyle := theme.ProgressStyle(p.Percentage)
	b.WriteString(ProgressBar(p.Percentage, m.barWidth(), pctStyle))
	b.WriteString(" ")
	b.WriteString(pctStyle.Render(fmt.Sprintf("%.0f%%", p.Percentage)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s of %s", m.units.Format(p.Total), m.units.Format(p.Goal)))
	if p.Remaining > 0 {
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("  (%s to go)", m.units.Format(p.Remaining))))
	}
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(p.Message()))
	b.WriteString("\n")

	if m.banner != "" {
		b.WriteString("\n")
		b.WriteString(theme.BannerStyle.Render(m.banner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderQuickAdd())
	b.WriteString("\n\n")
	b.WriteString(m.renderEntries())

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusMsgStyle.Render(m.statusMsg))
	}

	return m.frame(b.String())
}

func (m Model) renderQuickAdd() string {
	parts := make([]string, len(m.quick))
	for i, amount := range m.quick {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, m.units.Format(amount))
	}
	return lipgloss.NewStyle().Foreground(theme.ColorCyan).Render(strings.Join(parts, "  ")) +
		theme.DimmedStyle.Render("  [a] custom")
}

func (m Model) renderEntries() string {
	if len(m.progress.Entries) == 0 {
		return theme.HelpStyle.Render("Nothing logged yet today.")
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Today's drinks"))
	b.WriteString("\n")

	limit := m.height - 16
	if limit < 3 {
		limit = 3
	}
	for i, e := range m.progress.Entries {
		if i == limit {
			b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("  … %d more", len(m.progress.Entries)-limit)))
			break
		}
		line := fmt.Sprintf("%s  %-10s %s",
			e.Timestamp.Format("15:04"),
			m.units.Format(e.Amount),
			theme.DimmedStyle.Render(e.Beverage),
		)
		b.WriteString(theme.ListItemStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) frame(content string) string {
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(content)
}

// ProgressBar renders a horizontal bar width cells wide filled to pct.
func ProgressBar(pct float64, width int, style lipgloss.Style) string {
	if width < 1 {
		width = 1
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return style.Render(strings.Repeat("█", filled)) +
		theme.DimmedStyle.Render(strings.Repeat("░", width-filled))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetQuickAmounts replaces the quick-add amounts.
func (m *Model) SetQuickAmounts(quick []int) {
	if len(quick) > 9 {
		quick = quick[:9]
	}
	m.quick = quick
}

func (m Model) barWidth() int {
	w := m.width - 16
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

// Load returns a command that reads today's progress and the units
// preference.
func (m Model) Load() tea.Cmd {
	l := m.ledger
	return func() tea.Msg {
		ctx := context.Background()
		p, err := l.Progress(ctx)
		if err != nil {
			return progressLoadedMsg{err: err}
		}
		units, err := l.Units(ctx)
		return progressLoadedMsg{progress: p, units: units, err: err}
	}
}

// Add returns a command that records amount of beverage.
func (m Model) Add(amount int, beverage string) tea.Cmd {
	l := m.ledger
	return func() tea.Msg {
		r, err := l.AddEntry(context.Background(), amount, beverage)
		return EntryAddedMsg{Receipt: r, Err: err}
	}
}
