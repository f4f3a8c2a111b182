package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/watertracker/internal/keys"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/reminder"
	"github.com/nhle/watertracker/internal/theme"
)

// Queue lists what is waiting to be delivered.
type Queue interface {
	Pending(ctx context.Context, limit int) ([]model.ScheduledReminder, error)
	Enabled() bool
}

// ScheduleAppliedMsg is sent after a plan was saved and applied.
type ScheduleAppliedMsg struct {
	Schedule reminder.Schedule
	Err      error
}

type planLoadedMsg struct {
	plan    model.ReminderPlan
	pending []model.ScheduledReminder
	err     error
}

type formBindings struct {
	enabled  bool
	start    string
	end      string
	interval int
	days     []time.Weekday
	sound    string
}

// Model is the reminder settings view.
type Model struct {
	scheduler *reminder.Scheduler
	queue     Queue
	keys      *keys.KeyMap
	plan      model.ReminderPlan
	pending   []model.ScheduledReminder
	loaded    bool
	editing   bool
	form      *huh.Form
	fb        *formBindings
	statusMsg string
	err       error
	now       func() time.Time
	width     int
	height    int
}

// New creates the reminders view.
func New(s *reminder.Scheduler, q Queue, k *keys.KeyMap, width, height int) Model {
	return Model{
		scheduler: s,
		queue:     q,
		keys:      k,
		plan:      model.DefaultReminderPlan(),
		fb:        &formBindings{},
		now:       time.Now,
		width:     width,
		height:    height,
	}
}

// Init loads the saved plan.
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
	case planLoadedMsg:
		m.loaded = true
		m.err = msg.err
		m.plan = msg.plan
		m.pending = msg.pending
		return m, nil

	case ScheduleAppliedMsg:
		switch {
		case msg.Err != nil:
			m.statusMsg = fmt.Sprintf("Error: %v", msg.Err)
		case len(msg.Schedule.Reminders) == 0:
			m.statusMsg = "Reminders cleared"
		case !msg.Schedule.Delivering:
			m.statusMsg = fmt.Sprintf("Saved %d reminders, but notifications are disabled", len(msg.Schedule.Reminders))
		default:
			m.statusMsg = fmt.Sprintf("Scheduled %d reminders over the next %d days",
				len(msg.Schedule.Reminders), m.scheduler.Horizon())
		}
		return m, m.Load()

	case tea.KeyMsg:
		if m.editing {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.editing {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Select):
		m.fillBindings()
		m.form = m.buildForm()
		m.editing = true
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Toggle):
		plan := m.plan
		plan.Enabled = !plan.Enabled
		return m, m.Save(plan)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Save(m.plan)
	}
	return m, nil
}

func (m Model) fillBindings() {
	m.fb.enabled = m.plan.Enabled
	m.fb.start = m.plan.ActiveStart.String()
	m.fb.end = m.plan.ActiveEnd.String()
	m.fb.interval = m.plan.IntervalMinutes
	m.fb.sound = m.plan.Sound
	m.fb.days = m.fb.days[:0]
	for _, d := range model.WeekOrder {
		if m.plan.ActiveDays.Has(d) {
			m.fb.days = append(m.fb.days, d)
		}
	}
}

func (m Model) buildForm() *huh.Form {
	intervals := make([]huh.Option[int], len(model.IntervalOptions))
	for i, n := range model.IntervalOptions {
		intervals[i] = huh.NewOption(intervalLabel(n), n)
	}
	days := make([]huh.Option[time.Weekday], len(model.WeekOrder))
	for i, d := range model.WeekOrder {
		days[i] = huh.NewOption(model.WeekdayName(d), d)
	}
	sounds := make([]huh.Option[string], len(model.SoundOptions))
	for i, s := range model.SoundOptions {
		sounds[i] = huh.NewOption(s.Label, s.Value)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable reminders").
				Value(&m.fb.enabled),
			huh.NewInput().
				Title("Active from").
				Placeholder("08:00").
				Value(&m.fb.start).
				Validate(validateTime),
			huh.NewInput().
				Title("Active until").
				Placeholder("22:00").
				Value(&m.fb.end).
				Validate(validateTime),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Remind me every").
				Options(intervals...).
				Value(&m.fb.interval),
			huh.NewMultiSelect[time.Weekday]().
				Title("Active days").
				Options(days...).
				Value(&m.fb.days).
				Validate(func(ds []time.Weekday) error {
					if len(ds) == 0 {
						return fmt.Errorf("pick at least one day")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Sound").
				Options(sounds...).
				Value(&m.fb.sound),
		),
	).WithWidth(m.formWidth())
}

func validateTime(s string) error {
	_, err := model.ParseTimeOfDay(s)
	if err != nil {
		return fmt.Errorf("use HH:MM, e.g. 08:00")
	}
	return nil
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
		plan, err := planFromBindings(m.fb)
		if err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", err)
			return m, nil
		}
		return m, m.Save(plan)
	case huh.StateAborted:
		m.editing = false
		return m, nil
	}
	return m, cmd
}

func planFromBindings(fb *formBindings) (model.ReminderPlan, error) {
	start, err := model.ParseTimeOfDay(fb.start)
	if err != nil {
		return model.ReminderPlan{}, err
	}
	end, err := model.ParseTimeOfDay(fb.end)
	if err != nil {
		return model.ReminderPlan{}, err
	}
	return model.ReminderPlan{
		Enabled:         fb.enabled,
		ActiveStart:     start,
		ActiveEnd:       end,
		IntervalMinutes: fb.interval,
		ActiveDays:      model.NewWeekdays(fb.days...),
		Sound:           fb.sound,
	}, nil
}

// View renders the reminder settings.
func (m Model) View() string {
	if m.editing && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Water Reminders"))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(theme.DimmedStyle.Render("Loading..."))
		return m.frame(b.String())
	}
	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	p := m.plan
	state := lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("on")
	if !p.Enabled {
		state = lipgloss.NewStyle().Foreground(theme.ColorGray).Render("off")
	}

	rows := [][2]string{
		{"Reminders", state},
		{"Active hours", fmt.Sprintf("%s - %s", p.ActiveStart, p.ActiveEnd)},
		{"Interval", intervalLabel(p.IntervalMinutes)},
		{"Days", p.ActiveDays.String()},
		{"Sound", soundLabel(p.Sound)},
		{"Per day", fmt.Sprintf("≈%d reminders", reminder.EstimateCount(p))},
		{"Next", reminder.PreviewNext(p, m.now()).String()},
	}
	if m.queue != nil && !m.queue.Enabled() {
		rows = append(rows, [2]string{"Delivery", theme.StatusMsgStyle.Render("notifications disabled in config")})
	}
	label := lipgloss.NewStyle().Width(14).Foreground(theme.ColorGray)
	for _, r := range rows {
		b.WriteString(label.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderPending())

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.StatusMsgStyle.Render(m.statusMsg))
	}

	return m.frame(b.String())
}

func (m Model) renderPending() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Queued (%d)", len(m.pending))))
	b.WriteString("\n")
	if len(m.pending) == 0 {
		b.WriteString(theme.HelpStyle.Render("Nothing queued."))
		return b.String()
	}

	now := m.now()
	shown := m.pending
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, r := range shown {
		b.WriteString(theme.ListItemStyle.Render(fmt.Sprintf("%s  %s",
			r.FiresAt.Local().Format("Mon 15:04"),
			theme.DimmedStyle.Render(humanize.RelTime(r.FiresAt, now, "ago", "from now")),
		)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) frame(content string) string {
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(content)
}

func intervalLabel(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	case minutes%60 == 0:
		h := minutes / 60
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		return fmt.Sprintf("%.1f hours", float64(minutes)/60)
	}
}

func soundLabel(value string) string {
	for _, s := range model.SoundOptions {
		if s.Value == value {
			return s.Label
		}
	}
	return value
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

// Load returns a command that reads the plan and the queue.
func (m Model) Load() tea.Cmd {
	s := m.scheduler
	q := m.queue
	return func() tea.Msg {
		ctx := context.Background()
		plan, err := s.LoadPlan(ctx)
		if err != nil {
			return planLoadedMsg{plan: plan, err: err}
		}
		var pending []model.ScheduledReminder
		if q != nil {
			pending, err = q.Pending(ctx, 0)
		}
		return planLoadedMsg{plan: plan, pending: pending, err: err}
	}
}

// Save returns a command that persists plan and re-applies it.
func (m Model) Save(plan model.ReminderPlan) tea.Cmd {
	s := m.scheduler
	return func() tea.Msg {
		sched, err := s.Save(context.Background(), plan, time.Now())
		return ScheduleAppliedMsg{Schedule: sched, Err: err}
	}
}
