package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/theme"
)

// Kind identifies a palette command.
type Kind int

const (
	KindAdd Kind = iota
	KindGoal
	KindUnits
	KindReminders
	KindGoto
	KindRefresh
	KindReadAll
	KindQuit
)

// Command is a parsed palette command.
type Command struct {
	Kind     Kind
	Amount   int
	Beverage string
	Units    model.Units
	Enabled  bool
	Tab      string
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
}

// Usage lists the commands the palette accepts.
var Usage = []string{
	"add <ml> [drink]",
	"goal <ml>",
	"units metric|imperial|mixed",
	"reminders on|off",
	"home | history | reminders | inbox | settings",
	"refresh",
	"read",
	"quit",
}

// Parse turns a palette line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "add", "drink":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("usage: add <ml> [drink]")
		}
		n, err := strconv.Atoi(strings.TrimSuffix(args[0], "ml"))
		if err != nil {
			return Command{}, fmt.Errorf("amount %q is not a number", args[0])
		}
		c := Command{Kind: KindAdd, Amount: n, Beverage: model.DefaultBeverage}
		if len(args) > 1 {
			c.Beverage = strings.Join(args[1:], " ")
		}
		return c, nil

	case "goal":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: goal <ml>")
		}
		n, err := strconv.Atoi(strings.TrimSuffix(args[0], "ml"))
		if err != nil {
			return Command{}, fmt.Errorf("goal %q is not a number", args[0])
		}
		return Command{Kind: KindGoal, Amount: n}, nil

	case "units":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: units metric|imperial|mixed")
		}
		u := model.Units(args[0])
		if model.ParseUnits(args[0]) != u {
			return Command{}, fmt.Errorf("unknown units %q", args[0])
		}
		return Command{Kind: KindUnits, Units: u}, nil

	case "reminders":
		if len(args) == 0 {
			return Command{Kind: KindGoto, Tab: "reminders"}, nil
		}
		switch args[0] {
		case "on":
			return Command{Kind: KindReminders, Enabled: true}, nil
		case "off":
			return Command{Kind: KindReminders, Enabled: false}, nil
		}
		return Command{}, fmt.Errorf("usage: reminders on|off")

	case "home", "history", "inbox", "settings":
		return Command{Kind: KindGoto, Tab: name}, nil

	case "refresh", "sync":
		return Command{Kind: KindRefresh}, nil

	case "read":
		return Command{Kind: KindReadAll}, nil

	case "quit", "q":
		return Command{Kind: KindQuit}, nil
	}

	return Command{}, fmt.Errorf("unknown command %q", name)
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "add 250 tea"
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			c, err := Parse(line)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.input.Reset()
			return m, func() tea.Msg {
				return CommandMsg{Command: c}
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Command Palette")
	parts := []string{title, m.input.View()}

	if m.err != nil {
		parts = append(parts, "", theme.ErrorStyle.Render(m.err.Error()))
	}
	parts = append(parts, "", theme.HelpStyle.Render(strings.Join(Usage, "  ·  ")))

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.err = nil
	return m.input.Focus()
}
