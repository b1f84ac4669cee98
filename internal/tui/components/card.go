// Package components provides reusable TUI widgets for the budgetchat dashboard.
package components

import (
	"strings"

	"github.com/theirongolddev/budgetchat/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// LayoutRow distributes totalWidth into widths proportional to weights that
// sum to exactly totalWidth. Earlier panes absorb the rounding remainder.
func LayoutRow(totalWidth int, weights ...int) []int {
	if len(weights) == 0 {
		return nil
	}
	sum := 0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return make([]int, len(weights))
	}

	widths := make([]int, len(weights))
	used := 0
	for i, w := range weights {
		widths[i] = totalWidth * w / sum
		used += widths[i]
	}
	for i := 0; used < totalWidth; i = (i + 1) % len(widths) {
		widths[i]++
		used++
	}
	return widths
}

// MetricCard renders a small card with label, value and an optional detail
// line. outerWidth is the total rendered width including border.
func MetricCard(label, value, detail string, outerWidth int) string {
	t := theme.Active

	contentWidth := outerWidth - 2 // subtract border
	if contentWidth < 10 {
		contentWidth = 10
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)

	labelStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	valueStyle := lipgloss.NewStyle().
		Foreground(t.Money).
		Background(t.Surface).
		Bold(true)

	detailStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	content := labelStyle.Render(label) + "\n" + valueStyle.Render(value)
	if detail != "" {
		content += "\n" + detailStyle.Render(detail)
	}

	return cardStyle.Render(content)
}

// ContentCard renders a bordered pane with a title. The body is padded or
// cut to exactly innerHeight lines when innerHeight is positive; the focused
// pane gets the accent border.
func ContentCard(title, body string, outerWidth, innerHeight int, focused bool) string {
	t := theme.Active

	contentWidth := outerWidth - 2 // subtract border chars
	if contentWidth < 10 {
		contentWidth = 10
	}

	border := t.Border
	if focused {
		border = t.BorderAccent
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Bold(true)
	if focused {
		titleStyle = titleStyle.Foreground(t.AccentBright)
	}

	content := body
	if title != "" {
		content = titleStyle.Render(title) + "\n" + body
	}
	if innerHeight > 0 {
		content = FitHeight(content, innerHeight)
	}

	return cardStyle.Render(content)
}

// CardRow joins pre-rendered cards horizontally, padding shorter cards with
// the surface color.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4 // 2 border + 2 padding
	if w < 10 {
		w = 10
	}
	return w
}

// FitHeight cuts or pads s to exactly h lines.
func FitHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
