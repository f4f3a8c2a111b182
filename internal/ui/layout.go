package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/watertracker/internal/theme"
)

// Layout holds the terminal size and the fixed chrome rows around the
// active tab.
type Layout struct {
	Width  int
	Height int
}

// chromeRows is the header, the tab strip and the status bar.
const chromeRows = 3

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left for the active tab.
func (l Layout) ContentHeight() int {
	h := l.Height - chromeRows
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title bar with today's date on the right.
func (l Layout) RenderHeader(title, date string) string {
	return l.bar(theme.HeaderStyle, title, date)
}

// RenderTabs renders the tab strip. Tabs with a badge count above zero
// show it after the name.
func (l Layout) RenderTabs(names []string, badges map[int]int, active int) string {
	var row strings.Builder
	for i, name := range names {
		if n := badges[i]; n > 0 {
			count := strconv.Itoa(n)
			if n > 99 {
				count = "99+"
			}
			name += " " + theme.BadgeStyle.Render(count)
		}
		style := theme.TabStyle
		if i == active {
			style = theme.ActiveTabStyle
		}
		row.WriteString(style.Render(name))
	}
	return lipgloss.NewStyle().MaxWidth(l.Width).Render(row.String())
}

// RenderStatusBar renders key hints on the left and the latest status
// message on the right.
func (l Layout) RenderStatusBar(hints, status string) string {
	return l.bar(theme.StatusBarStyle, hints, status)
}

// bar fills one full-width row in style with left and right text.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Align(lipgloss.Right).Render(right)
	}

	gap := l.Width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		// Too narrow for both; the status wins.
		if rightRendered != "" {
			return lipgloss.NewStyle().MaxWidth(l.Width).Render(rightRendered)
		}
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, filler, rightRendered)
}

// RenderWithFrame stacks the chrome around content, clipping content to
// ContentHeight so the status bar stays on the last row.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, statusBar)
}
