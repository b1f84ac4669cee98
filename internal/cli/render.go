package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Line-output palette (Flexoki Dark).
var (
	colorBorder = lipgloss.Color("#575653")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorMoney  = lipgloss.Color("#879A39")
	colorWarn   = lipgloss.Color("#DA702C")
	colorError  = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	dimStyle    = lipgloss.NewStyle().Foreground(colorBorder)
	moneyStyle  = lipgloss.NewStyle().Foreground(colorMoney)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	errStyle    = lipgloss.NewStyle().Foreground(colorError)
)

// Table is a boxed table. A row holding only "---" draws a rule.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders title centered in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t in a rounded box. Cells after the first column are
// right-aligned so amounts line up; widths are measured in terminal cells.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	if cols == 0 {
		return ""
	}
	widths := columnWidths(t, cols)

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(tableLine(t.Headers, widths, headerStyle, false))
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			b.WriteString(rule(widths, "├", "┼", "┤"))
			continue
		}
		b.WriteString(tableLine(row, widths, valueStyle, true))
	}
	b.WriteString(rule(widths, "╰", "┴", "╯"))
	return b.String()
}

func columnWidths(t Table, cols int) []int {
	widths := make([]int, cols)
	grow := func(cells []string) {
		for i, cell := range cells[:min(len(cells), cols)] {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	grow(t.Headers)
	for _, row := range t.Rows {
		if !isSeparator(row) {
			grow(row)
		}
	}
	return widths
}

func rule(widths []int, left, mid, right string) string {
	segs := make([]string, len(widths))
	for i, w := range widths {
		segs[i] = strings.Repeat("─", w+2)
	}
	return dimStyle.Render(left+strings.Join(segs, mid)+right) + "\n"
}

func tableLine(cells []string, widths []int, style lipgloss.Style, rightAlign bool) string {
	out := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if rightAlign && i > 0 {
			cell = padLeft(cell, w)
		} else {
			cell = padRight(cell, w)
		}
		out[i] = style.Render(" " + cell + " ")
	}
	bar := dimStyle.Render("│")
	return bar + strings.Join(out, bar) + bar + "\n"
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == "---"
}
