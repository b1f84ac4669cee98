package components

import (
	"strings"

	"github.com/theirongolddev/budgetchat/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar with key hints on the left
// and info on the right. A non-empty alert replaces info and is drawn in the
// warning color.
func RenderStatusBar(width int, hints, info, alert string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := " " + hints
	right := info + " "
	rightStyle := style
	if alert != "" {
		right = alert + " "
		rightStyle = style.Foreground(t.Warn)
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	bar := style.Render(left+strings.Repeat(" ", padding)) + rightStyle.Render(right)
	return lipgloss.NewStyle().Background(t.Surface).MaxWidth(width).Render(bar)
}
