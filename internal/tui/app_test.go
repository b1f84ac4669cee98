package tui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/conversation"
	"github.com/theirongolddev/budgetchat/internal/disclosure"
	"github.com/theirongolddev/budgetchat/internal/ledger"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

var t0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type fakeConversation struct {
	mu        sync.Mutex
	state     conversation.State
	submitted []string
	toggled   []string
	events    chan conversation.Event
}

func newFakeConversation() *fakeConversation {
	doc := ledger.Seed()
	return &fakeConversation{
		state: conversation.State{
			Messages: []chat.Message{
				{ID: 1, Sender: chat.Assistant, Text: "Hello, what are we building?", Timestamp: t0},
			},
			Document:   doc,
			Disclosure: disclosure.Seed(doc),
		},
		events: make(chan conversation.Event, 8),
	}
}

func (f *fakeConversation) Submit(text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, chat.ErrInvalidInput
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	msg := chat.Message{ID: len(f.state.Messages) + 1, Sender: chat.User, Text: text, Timestamp: t0}
	f.submitted = append(f.submitted, text)
	f.state.Messages = append(f.state.Messages, msg)
	f.state.Pending = append(f.state.Pending, msg.ID)
	f.state.Revision++
	return msg, nil
}

func (f *fakeConversation) Toggle(title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := f.state.Disclosure.Toggle(f.state.Document, title)
	if err != nil {
		return err
	}
	f.toggled = append(f.toggled, title)
	f.state.Disclosure = next
	f.state.Revision++
	return nil
}

func (f *fakeConversation) State() conversation.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeConversation) Subscribe(int) (<-chan conversation.Event, func()) {
	return f.events, func() {}
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return app
}

func press(t *testing.T, a App, key string) App {
	t.Helper()
	switch key {
	case "enter":
		return update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	case "tab":
		return update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	case "esc":
		return update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	default:
		return update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	}
}

func sized(t *testing.T, conv Conversation) App {
	t.Helper()
	return update(t, NewApp(conv), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func TestSubmitOnEnter(t *testing.T) {
	conv := newFakeConversation()
	a := sized(t, conv)

	a.input.SetValue("add 12 m² of tiling")
	a = press(t, a, "enter")

	if len(conv.submitted) != 1 || conv.submitted[0] != "add 12 m² of tiling" {
		t.Fatalf("submitted = %q", conv.submitted)
	}
	if a.input.Value() != "" {
		t.Errorf("input not cleared: %q", a.input.Value())
	}
	if len(a.state.Messages) != 2 || !a.state.Busy() {
		t.Errorf("state not refreshed after submit: %d messages, pending %v", len(a.state.Messages), a.state.Pending)
	}
	if got := a.info(); got != "1 pending" {
		t.Errorf("info = %q, want 1 pending", got)
	}
}

func TestBlankInputIsIgnored(t *testing.T) {
	conv := newFakeConversation()
	a := sized(t, conv)

	a.input.SetValue("   ")
	a = press(t, a, "enter")

	if len(conv.submitted) != 0 {
		t.Fatalf("blank input submitted: %q", conv.submitted)
	}
	if a.alert != "" {
		t.Errorf("blank input raised alert %q", a.alert)
	}
	if len(a.state.Messages) != 1 {
		t.Errorf("messages = %d, want 1", len(a.state.Messages))
	}
}

func TestToggleSelectedSection(t *testing.T) {
	conv := newFakeConversation()
	a := sized(t, conv)

	a = press(t, a, "tab")
	if a.focus != focusBudget {
		t.Fatal("tab should focus the budget pane")
	}
	a = press(t, a, "j")
	a = press(t, a, "enter")

	if len(conv.toggled) != 1 || conv.toggled[0] != "Windows" {
		t.Fatalf("toggled = %q, want [Windows]", conv.toggled)
	}
	if !a.state.Disclosure.IsOpen("Windows") {
		t.Error("Windows should be open after toggle")
	}

	// Cursor stops at both ends.
	for range 10 {
		a = press(t, a, "j")
	}
	if a.cursor != 4 {
		t.Errorf("cursor = %d, want 4", a.cursor)
	}
	a = press(t, a, "g")
	a = press(t, a, "k")
	if a.cursor != 0 {
		t.Errorf("cursor = %d, want 0", a.cursor)
	}
}

func TestKeysInInputDoNotToggle(t *testing.T) {
	conv := newFakeConversation()
	a := sized(t, conv)

	a = press(t, a, "j")
	a = press(t, a, "q")
	if len(conv.toggled) != 0 {
		t.Fatalf("typing toggled sections: %q", conv.toggled)
	}
	if a.input.Value() != "jq" {
		t.Errorf("input = %q, want jq", a.input.Value())
	}
}

func TestStaleStateIgnored(t *testing.T) {
	a := sized(t, newFakeConversation())

	newer := a.state
	newer.Revision = 5
	newer.Pending = []int{2}
	a = update(t, a, EventMsg{Event: conversation.Event{ID: 5, Type: conversation.EventTurnSubmitted, State: newer}})

	older := a.state
	older.Revision = 3
	older.Pending = nil
	a = update(t, a, EventMsg{Event: conversation.Event{ID: 3, Type: conversation.EventTurnSubmitted, State: older}})

	if a.state.Revision != 5 || !a.state.Busy() {
		t.Fatalf("older event overwrote state: revision %d, pending %v", a.state.Revision, a.state.Pending)
	}
}

func TestEventsRaiseAlerts(t *testing.T) {
	a := sized(t, newFakeConversation())

	st := a.state
	st.Revision = 1
	a = update(t, a, EventMsg{Event: conversation.Event{
		ID: 1, Type: conversation.EventEstimationFailed, TurnID: 2, Error: "deadline exceeded", State: st,
	}})
	if !strings.Contains(a.alert, "estimation failed") {
		t.Errorf("alert = %q", a.alert)
	}

	st.Revision = 2
	a = update(t, a, EventMsg{Event: conversation.Event{
		ID: 2, Type: conversation.EventReplyAppended, TurnID: 3, Error: "section not found", State: st,
	}})
	if !strings.Contains(a.alert, "rejected") {
		t.Errorf("alert = %q", a.alert)
	}
}

func TestCursorClampsWhenSectionsShrink(t *testing.T) {
	a := sized(t, newFakeConversation())
	a = press(t, a, "tab")
	a = press(t, a, "G")
	if a.cursor != 4 {
		t.Fatalf("cursor = %d, want 4", a.cursor)
	}

	sec, _ := ledger.NewSection("Roofing", ledger.MustItem("Tiles", 30, "m²", 20))
	doc, _ := ledger.NewDocument(sec)
	st := a.state
	st.Revision = 1
	st.Document = doc
	st.Disclosure = st.Disclosure.Sync(doc)
	a = update(t, a, EventMsg{Event: conversation.Event{ID: 1, Type: conversation.EventReplyAppended, State: st}})

	if a.cursor != 0 {
		t.Errorf("cursor = %d, want 0", a.cursor)
	}
}

func TestStreamClosed(t *testing.T) {
	a := sized(t, newFakeConversation())
	a = update(t, a, streamClosedMsg{})
	if got := a.info(); got != "closed" {
		t.Errorf("info = %q, want closed", got)
	}
}

func TestViewShowsBudget(t *testing.T) {
	a := sized(t, newFakeConversation())
	view := a.View()

	for _, want := range []string{"budgetchat", "Conversation", "Budget", "Masonry", "Wall construction", "Electrical", "Grand total", "10.690,00"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	// Windows starts closed.
	if strings.Contains(view, "Aluminium windows") {
		t.Error("items of a closed section are shown")
	}
	if got := lipgloss.Height(view); got != 40 {
		t.Errorf("view height = %d, want 40", got)
	}
}

func TestViewTooNarrow(t *testing.T) {
	a := update(t, NewApp(newFakeConversation()), tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(a.View(), "Terminal too narrow") {
		t.Error("narrow terminal should show the width notice")
	}
}

func TestHelpOverlay(t *testing.T) {
	a := sized(t, newFakeConversation())
	a = press(t, a, "tab")
	a = press(t, a, "?")
	if !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	a = press(t, a, "x")
	if a.showHelp {
		t.Error("any key should dismiss help")
	}
}

func TestSpread(t *testing.T) {
	tests := []struct {
		left, right string
		width       int
		want        string
	}{
		{"▸ Masonry", "3800,00 €", 24, "▸ Masonry      3800,00 €"},
		{"  Wall construction", "2925,00 €", 20, "  Wall co… 2925,00 €"},
		{"    no items", "", 14, "    no items  "},
	}
	for _, tt := range tests {
		got := spread(tt.left, tt.right, tt.width)
		if got != tt.want {
			t.Errorf("spread(%q, %q, %d) = %q, want %q", tt.left, tt.right, tt.width, got, tt.want)
		}
		if w := lipgloss.Width(got); w != tt.width {
			t.Errorf("spread width = %d, want %d", w, tt.width)
		}
	}
}
