package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorCyan    = lipgloss.AdaptiveColor{Dark: "#4FC3F7", Light: "#0277BD"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a view's content area.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TitleStyle is used for view titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle is used for secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// StatusMsgStyle renders transient status lines inside a view.
var StatusMsgStyle = lipgloss.NewStyle().
	Foreground(ColorYellow).
	Italic(true)

// ErrorStyle renders errors inside a view.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// TabStyle and ActiveTabStyle render the tab strip.
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 2)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan).
			Underline(true).
			Padding(0, 2)
)

// BadgeStyle renders unread counts next to a tab name.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorMagenta).
	Padding(0, 1)

// BannerStyle is used for the goal-reached celebration.
var BannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen).
	Border(lipgloss.DoubleBorder()).
	BorderForeground(ColorGreen).
	Padding(0, 2)

// ProgressStyle returns a color for a goal percentage.
func ProgressStyle(pct float64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case pct >= 100:
		return base.Foreground(ColorGreen)
	case pct >= 75:
		return base.Foreground(ColorCyan)
	case pct >= 50:
		return base.Foreground(ColorBlue)
	case pct >= 25:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorOrange)
	}
}

// NotificationKindStyle returns a color-coded style for a notification kind.
func NotificationKindStyle(kind string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch kind {
	case "reminder":
		return base.Foreground(ColorCyan)
	case "goal":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}
