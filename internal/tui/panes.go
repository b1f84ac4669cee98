package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/cli"
	"github.com/theirongolddev/budgetchat/internal/money"
	"github.com/theirongolddev/budgetchat/internal/tui/components"
	"github.com/theirongolddev/budgetchat/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// refreshChat re-renders the message log into the viewport.
func (a *App) refreshChat() {
	if a.chat.Width <= 0 {
		return
	}

	parts := make([]string, 0, len(a.state.Messages))
	for _, m := range a.state.Messages {
		parts = append(parts, a.renderMessage(m, a.chat.Width))
	}
	a.chat.SetContent(strings.Join(parts, "\n\n"))
	if a.follow {
		a.chat.GotoBottom()
	}
}

func (a *App) renderMessage(m chat.Message, width int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(t.User)
	label := "You"
	if m.Sender == chat.Assistant {
		labelStyle = labelStyle.Foreground(t.Assistant)
		label = "Assistant"
	}
	timeStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	header := labelStyle.Render(label) + " " + timeStyle.Render(m.Timestamp.Format("15:04"))

	return header + "\n" + a.renderBody(m, width)
}

// renderBody renders assistant text as markdown, caching by message id.
// User text and anything glamour cannot render are wrapped as plain text.
func (a *App) renderBody(m chat.Message, width int) string {
	plain := lipgloss.NewStyle().Foreground(theme.Active.TextPrimary).Width(width)
	if m.Sender != chat.Assistant || a.md == nil {
		return plain.Render(m.Text)
	}
	if out, ok := a.rendered[m.ID]; ok {
		return out
	}

	out, err := a.md.Render(m.Text)
	if err != nil {
		return plain.Render(m.Text)
	}
	out = strings.Trim(out, "\n")
	a.rendered[m.ID] = out
	return out
}

func (a App) renderChatBody() string {
	t := theme.Active

	pending := ""
	if n := len(a.state.Pending); n > 0 {
		noun := "turn"
		if n > 1 {
			noun = "turns"
		}
		pending = a.spinner.View() + lipgloss.NewStyle().
			Foreground(t.TextMuted).
			Background(t.Surface).
			Render(fmt.Sprintf(" estimating %d %s…", n, noun))
	}

	return a.chat.View() + "\n" + pending + "\n" + a.input.View()
}

// renderBudgetPane stacks the section list over the grand-total card so
// both fill exactly contentH lines.
func (a App) renderBudgetPane(width, contentH int) string {
	doc := a.state.Document
	items := 0
	for _, s := range doc.Sections {
		items += len(s.Items)
	}

	totalCard := components.MetricCard(
		"Grand total",
		money.Format(doc.Total()),
		fmt.Sprintf("%d sections · %d items", doc.Len(), items),
		width,
	)

	listH := contentH - lipgloss.Height(totalCard) - 2 // list card border
	if listH < 2 {
		listH = 2
	}
	body := a.renderSections(components.CardInnerWidth(width), listH-1)
	list := components.ContentCard("Budget", body, width, listH, a.focus == focusBudget)

	return lipgloss.JoinVertical(lipgloss.Left, list, totalCard)
}

// renderSections lists sections with their totals and the items of open
// sections, scrolled so the selected section stays visible.
func (a App) renderSections(width, height int) string {
	t := theme.Active
	doc := a.state.Document

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Selection).Bold(true)
	itemStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	if doc.Len() == 0 {
		return dimStyle.Render("No sections yet. Ask for some work to be priced.")
	}

	var lines []string
	cursorLine := 0
	for i, s := range doc.Sections {
		open := a.state.Disclosure.IsOpen(s.Title)
		marker := "▸"
		if open {
			marker = "▾"
		}

		style := rowStyle
		if i == a.cursor {
			cursorLine = len(lines)
			if a.focus == focusBudget {
				style = selStyle
			}
		}
		lines = append(lines, style.Render(spread(marker+" "+s.Title, money.Format(s.Total()), width)))

		if !open {
			continue
		}
		if len(s.Items) == 0 {
			lines = append(lines, dimStyle.Render(spread("    no items", "", width)))
			continue
		}
		for _, it := range s.Items {
			lines = append(lines, itemStyle.Render(spread("  "+it.Name, money.Format(it.Total()), width)))
			detail := fmt.Sprintf("    %s × %s", cli.FormatQuantity(it.Quantity, it.Unit), money.Format(it.UnitPrice))
			lines = append(lines, dimStyle.Render(spread(detail, "", width)))
		}
	}

	if height > 0 && len(lines) > height {
		start := 0
		if cursorLine >= height {
			start = cursorLine - height + 1
		}
		lines = lines[start : start+height]
	}
	return strings.Join(lines, "\n")
}

// spread places left and right on one line of exactly width cells,
// truncating left when both do not fit.
func spread(left, right string, width int) string {
	rw := lipgloss.Width(right)
	room := width - rw - 1
	if right == "" {
		room = width
	}
	trimmed := strings.TrimLeft(left, " ")
	indent := left[:len(left)-len(trimmed)]
	if room-len(indent) < 1 {
		return cli.Truncate(right, width)
	}
	left = indent + cli.Truncate(trimmed, room-len(indent))
	gap := width - lipgloss.Width(left) - rw
	return left + strings.Repeat(" ", gap) + right
}
