package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/conversation"
	"github.com/theirongolddev/budgetchat/internal/disclosure"
	"github.com/theirongolddev/budgetchat/internal/ledger"
	"github.com/theirongolddev/budgetchat/internal/money"
	"github.com/theirongolddev/budgetchat/internal/store"
)

const promptWidth = 40

// RenderBudget renders a per-section summary followed by the item tables of
// the open sections (every section when expandAll is set).
func RenderBudget(doc ledger.Document, open disclosure.State, expandAll bool) string {
	var b strings.Builder
	grand := doc.Total()

	if doc.Len() == 0 {
		b.WriteString(mutedStyle.Render("  No sections yet."))
		b.WriteString("\n")
	} else {
		summary := Table{
			Title:   "Sections",
			Headers: []string{"Section", "Items", "Total", "Share"},
		}
		items := 0
		for _, s := range doc.Sections {
			items += len(s.Items)
			summary.Rows = append(summary.Rows, []string{
				s.Title,
				strconv.Itoa(len(s.Items)),
				money.Format(s.Total()),
				FormatShare(s.Total(), grand),
			})
		}
		summary.Rows = append(summary.Rows,
			[]string{"---"},
			[]string{"Total", strconv.Itoa(items), money.Format(grand), ""},
		)
		b.WriteString(RenderTable(summary))
	}

	for _, s := range doc.Sections {
		if !expandAll && !open.IsOpen(s.Title) {
			continue
		}
		t := Table{
			Title:   s.Title,
			Headers: []string{"Item", "Quantity", "Unit price", "Total"},
		}
		for _, it := range s.Items {
			t.Rows = append(t.Rows, []string{
				it.Name,
				FormatQuantity(it.Quantity, it.Unit),
				money.Format(it.UnitPrice),
				money.Format(it.Total()),
			})
		}
		t.Rows = append(t.Rows, []string{"---"}, []string{"Subtotal", "", "", money.Format(s.Total())})
		b.WriteString("\n")
		b.WriteString(RenderTable(t))
	}

	b.WriteString("\n  ")
	b.WriteString(headerStyle.Render("Grand total: "))
	b.WriteString(moneyStyle.Render(money.Format(grand)))
	b.WriteString("\n")
	return b.String()
}

// RenderMessage renders one chat message with its sender.
func RenderMessage(m chat.Message) string {
	label := headerStyle.Render("You")
	if m.Sender == chat.Assistant {
		label = moneyStyle.Render("Assistant")
	}
	return fmt.Sprintf("  %s %s\n  %s\n", label, dimStyle.Render(m.Timestamp.Format("15:04")), valueStyle.Render(m.Text))
}

// RenderHistory renders archived turns, newest first.
func RenderHistory(turns []store.Turn) string {
	if len(turns) == 0 {
		return mutedStyle.Render("  No turns archived yet.") + "\n"
	}

	t := Table{
		Title:   "Recent turns",
		Headers: []string{"When", "Prompt", "Outcome", "Latency", "Total"},
	}
	var failed, rejected int
	for _, turn := range turns {
		switch turn.Outcome {
		case conversation.OutcomeFailed:
			failed++
		case conversation.OutcomeRejected:
			rejected++
		}
		latency := turn.ReplyAt.Sub(turn.PromptAt)
		t.Rows = append(t.Rows, []string{
			turn.PromptAt.Local().Format(time.DateTime),
			Truncate(turn.Prompt, promptWidth),
			string(turn.Outcome),
			FormatDuration(int64(latency.Round(time.Second) / time.Second)),
			money.Format(turn.Total),
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(t))
	if failed > 0 {
		b.WriteString("  ")
		b.WriteString(errStyle.Render(fmt.Sprintf("%d failed", failed)))
		b.WriteString("\n")
	}
	if rejected > 0 {
		b.WriteString("  ")
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d with rejected changes", rejected)))
		b.WriteString("\n")
	}
	return b.String()
}
