package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/watertracker/internal/keys"
	"github.com/nhle/watertracker/internal/theme"
	"github.com/nhle/watertracker/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the key bindings and the palette commands.
func (m Model) View() string {
	m.help.Width = m.width - 4
	m.help.ShowAll = true

	var cmds strings.Builder
	for _, u := range command.Usage {
		cmds.WriteString("  :" + u + "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		theme.TitleStyle.Render("Commands"),
		theme.HelpStyle.Render(cmds.String()),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
