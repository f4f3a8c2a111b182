package settings

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

// SavedMsg is sent after settings were written. Config is the updated
// file configuration.
type SavedMsg struct {
	Config model.AppConfig
	Err    error
}

type loadedMsg struct {
	goal  int
	units model.Units
	err   error
}

type formBindings struct {
	goal          string
	units         model.Units
	quickAmounts  string
	notifications bool
}

// Model is the settings view.
type Model struct {
	ledger     *ledger.Ledger
	keys       *keys.KeyMap
	cfg        model.AppConfig
	configPath string
	goal       int
	units      model.Units
	editing    bool
	form       *huh.Form
	fb         *formBindings
	statusMsg  string
	err        error
	width      int
	height     int
}

// New creates the settings view. cfg is copied.
func New(l *ledger.Ledger, k *keys.KeyMap, cfg model.AppConfig, configPath string, width, height int) Model {
	return Model{
		ledger:     l,
		keys:       k,
		cfg:        cfg,
		configPath: configPath,
		goal:       cfg.Ledger.DefaultGoalML,
		units:      model.ParseUnits(cfg.Display.Units),
		fb:         &formBindings{},
		width:      width,
		height:     height,
	}
}

// Init loads the stored preferences.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// InputActive reports whether a form has keyboard focus.
func (m Model) InputActive() bool {
	return m.editing
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.goal = msg.goal
			m.units = msg.units
		}
		return m, nil

	case SavedMsg:
		if msg.Err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.Err)
		} else {
			m.cfg = msg.Config
			m.statusMsg = "Settings saved"
		}
		return m, m.Load()

	case tea.KeyMsg:
		if m.editing {
			return m.updateForm(msg)
		}
		if key.Matches(msg, m.keys.Edit) || key.Matches(msg, m.keys.Select) {
			m.fb.goal = strconv.Itoa(m.goal)
			m.fb.units = m.units
			m.fb.quickAmounts = FormatAmounts(m.cfg.Ledger.QuickAmounts)
			m.fb.notifications = m.cfg.Notifications.Enabled
			m.form = m.buildForm()
			m.editing = true
			return m, m.form.Init()
		}
		return m, nil
	}

	if m.editing {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	units := make([]huh.Option[model.Units], len(model.UnitOptions))
	for i, u := range model.UnitOptions {
		units[i] = huh.NewOption(u.Label, u.Value)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Daily goal (ml)").
				Placeholder("2000").
				Value(&m.fb.goal).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("goal must be a positive number of milliliters")
					}
					return nil
				}),
			huh.NewSelect[model.Units]().
				Title("Units").
				Options(units...).
				Value(&m.fb.units),
			huh.NewInput().
				Title("Quick-add amounts (ml)").
				Description("Comma separated, up to nine").
				Value(&m.fb.quickAmounts).
				Validate(func(s string) error {
					_, err := ParseAmounts(s)
					return err
				}),
			huh.NewConfirm().
				Title("Allow reminder notifications").
				Value(&m.fb.notifications),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.editing = false
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.editing = false
		return m, m.save()
	case huh.StateAborted:
		m.editing = false
		return m, nil
	}
	return m, cmd
}

// View renders the settings.
func (m Model) View() string {
	if m.editing && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Settings"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	notifications := "on"
	if !m.cfg.Notifications.Enabled {
		notifications = "off"
	}
	push := "off"
	if m.cfg.Push.Enabled {
		push = m.cfg.Push.URL
	}

	rows := [][2]string{
		{"Daily goal", m.units.Format(m.goal)},
		{"Units", unitsLabel(m.units)},
		{"Quick add", FormatAmounts(m.cfg.Ledger.QuickAmounts)},
		{"Notifications", notifications},
		{"Push", push},
		{"Database", m.cfg.Database.Path},
		{"Config", m.configPath},
		{"Log", m.cfg.Log.Path},
	}
	label := lipgloss.NewStyle().Width(16).Foreground(theme.ColorGray)
	for _, r := range rows {
		b.WriteString(label.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusMsgStyle.Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func unitsLabel(u model.Units) string {
	for _, o := range model.UnitOptions {
		if o.Value == u {
			return o.Label
		}
	}
	return string(u)
}

// ParseAmounts parses a comma separated list of positive milliliter
// amounts.
func ParseAmounts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%q is not a positive amount", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("enter at least one amount")
	}
	if len(out) > 9 {
		return nil, fmt.Errorf("at most nine amounts")
	}
	return out, nil
}

// FormatAmounts joins amounts with commas.
func FormatAmounts(amounts []int) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = strconv.Itoa(a)
	}
	return strings.Join(parts, ", ")
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

// Load returns a command that reads the goal and units.
func (m Model) Load() tea.Cmd {
	l := m.ledger
	return func() tea.Msg {
		ctx := context.Background()
		goal, err := l.DailyGoal(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		units, err := l.Units(ctx)
		return loadedMsg{goal: goal, units: units, err: err}
	}
}

// save writes the goal and units to the store and the rest to the config
// file.
func (m Model) save() tea.Cmd {
	l := m.ledger
	fb := *m.fb
	cfg := m.cfg
	path := m.configPath
	return func() tea.Msg {
		ctx := context.Background()
		goal, _ := strconv.Atoi(strings.TrimSpace(fb.goal))
		if err := l.SetDailyGoal(ctx, goal); err != nil {
			return SavedMsg{Config: cfg, Err: err}
		}
		if err := l.SetUnits(ctx, fb.units); err != nil {
			return SavedMsg{Config: cfg, Err: err}
		}

		amounts, err := ParseAmounts(fb.quickAmounts)
		if err != nil {
			return SavedMsg{Config: cfg, Err: err}
		}
		cfg.Ledger.QuickAmounts = amounts
		cfg.Notifications.Enabled = fb.notifications
		cfg.Display.Units = string(fb.units)
		if path != "" {
			if err := model.SaveConfig(path, &cfg); err != nil {
				return SavedMsg{Config: m.cfg, Err: err}
			}
		}
		return SavedMsg{Config: cfg}
	}
}
