package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetchat/internal/conversation"
	"github.com/theirongolddev/budgetchat/internal/disclosure"
	"github.com/theirongolddev/budgetchat/internal/ledger"
	"github.com/theirongolddev/budgetchat/internal/store"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func assertAligned(t *testing.T, table string) {
	t.Helper()
	var width int
	for i, line := range strings.Split(strings.TrimRight(table, "\n"), "\n") {
		if !strings.HasPrefix(line, "╭") && !strings.HasPrefix(line, "│") &&
			!strings.HasPrefix(line, "├") && !strings.HasPrefix(line, "╰") {
			continue
		}
		w := runewidth.StringWidth(line)
		if width == 0 {
			width = w
		}
		if w != width {
			t.Fatalf("line %d has width %d, want %d:\n%s", i, w, width, table)
		}
	}
	if width == 0 {
		t.Fatalf("no table lines in:\n%s", table)
	}
}

func TestRenderTableAlignsWideCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Item", "Quantity", "Total"},
		Rows: [][]string{
			{"Tiling", "25 m²", "875,00 €"},
			{"---"},
			{"Wall construction", "45 m²", "2925,00 €"},
		},
	})
	assertAligned(t, out)
	if !strings.Contains(out, "Wall construction") {
		t.Fatalf("missing row:\n%s", out)
	}
}

func TestRenderTableRightAlignsAmounts(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Item", "Total"},
		Rows: [][]string{
			{"Tiling", "875,00 €"},
			{"Wall", "2925,00 €"},
		},
	})
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Tiling") && !strings.HasSuffix(line, "  875,00 € │") {
			t.Fatalf("amount not right-aligned: %q", line)
		}
		if strings.Contains(line, "Item") && !strings.Contains(line, "│ Total     │") {
			t.Fatalf("header not left-aligned: %q", line)
		}
	}
	if RenderTable(Table{}) != "" {
		t.Fatal("empty table rendered output")
	}
}

func TestRenderBudget(t *testing.T) {
	doc := ledger.Seed()
	out := RenderBudget(doc, disclosure.Seed(doc), false)

	for _, want := range []string{"Masonry", "3800,00 €", "Wall construction", "10.690,00 €", "Grand total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("budget output missing %q:\n%s", want, out)
		}
	}
	// Windows is closed, so its items are not listed.
	if strings.Contains(out, "Double glazing") {
		t.Fatalf("closed section items rendered:\n%s", out)
	}

	all := RenderBudget(doc, disclosure.Seed(doc), true)
	if !strings.Contains(all, "Double glazing") {
		t.Fatalf("expandAll did not list every section:\n%s", all)
	}
}

func TestRenderBudgetEmpty(t *testing.T) {
	out := RenderBudget(ledger.Document{}, nil, true)
	if !strings.Contains(out, "No sections yet.") || !strings.Contains(out, "0,00 €") {
		t.Fatalf("empty budget output:\n%s", out)
	}
}

func TestRenderHistory(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	turns := []store.Turn{
		{TurnID: 3, Prompt: "and another window please, aluminium, double glazed, white frame", PromptAt: at, ReplyAt: at.Add(31 * time.Second), Outcome: conversation.OutcomeFailed, Total: decimal.NewFromInt(10970)},
		{TurnID: 1, Prompt: "add a window", PromptAt: at, ReplyAt: at.Add(time.Second), Outcome: conversation.OutcomeApplied, Total: decimal.NewFromInt(10970)},
	}
	out := RenderHistory(turns)
	assertAligned(t, out)
	if !strings.Contains(out, "1 failed") {
		t.Fatalf("missing failure count:\n%s", out)
	}
	if !strings.Contains(out, "…") {
		t.Fatalf("long prompt not truncated:\n%s", out)
	}

	if got := RenderHistory(nil); !strings.Contains(got, "No turns") {
		t.Fatalf("empty history = %q", got)
	}
}
