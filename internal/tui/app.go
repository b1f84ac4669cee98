// Package tui provides the interactive Bubble Tea chat for budgetchat.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/conversation"
	"github.com/theirongolddev/budgetchat/internal/tui/components"
	"github.com/theirongolddev/budgetchat/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// EventMsg carries a conversation event into the update loop.
type EventMsg struct {
	Event conversation.Event
}

// streamClosedMsg is sent once the controller closes the event channel.
type streamClosedMsg struct{}

type tickMsg struct{}

// Conversation is the part of the controller the TUI drives.
type Conversation interface {
	Submit(text string) (chat.Message, error)
	Toggle(title string) error
	State() conversation.State
	Subscribe(buffer int) (<-chan conversation.Event, func())
}

type focus int

const (
	focusInput focus = iota
	focusBudget
)

// App is the root Bubble Tea model.
type App struct {
	conv        Conversation
	events      <-chan conversation.Event
	unsubscribe func()

	state  conversation.State
	closed bool

	// UI state
	width    int
	height   int
	focus    focus
	cursor   int // selected section in the budget pane
	showHelp bool
	alert    string

	input   textinput.Model
	chat    viewport.Model
	spinner spinner.Model
	follow  bool // keep the chat pinned to the newest message

	md       *glamour.TermRenderer
	mdWidth  int
	rendered map[int]string // assistant message id -> rendered markdown
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 12

	eventBuffer  = 64
	inputLimit   = 2000
	tickInterval = 500 * time.Millisecond
)

// NewApp builds the TUI around conv and subscribes to its events.
func NewApp(conv Conversation) App {
	events, unsubscribe := conv.Subscribe(eventBuffer)

	ti := textinput.New()
	ti.Placeholder = "Describe the work, e.g. add 12 m² of tiling"
	ti.Prompt = "› "
	ti.CharLimit = inputLimit
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		conv:        conv,
		events:      events,
		unsubscribe: unsubscribe,
		state:       conv.State(),
		input:       ti,
		chat:        viewport.New(0, 0),
		spinner:     sp,
		follow:      true,
		rendered:    make(map[int]string),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		textinput.Blink,
		a.spinner.Tick,
		waitForEvent(a.events),
		tickCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case EventMsg:
		a.applyEvent(msg.Event)
		return a, waitForEvent(a.events)

	case streamClosedMsg:
		a.closed = true
		return a, nil

	case tickMsg:
		// Events can be dropped for a lagging subscriber; poll while turns are in flight.
		if a.state.Busy() && !a.closed {
			a.setState(a.conv.State())
		}
		return a, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if a.showHelp {
			return a, nil
		}
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		a.follow = a.chat.AtBottom()
		return a, cmd

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Cursor blinks and the like.
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a, a.quit()
	}

	// Any key dismisses help
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "tab", "shift+tab":
		if a.focus == focusInput {
			a.setFocus(focusBudget)
		} else {
			a.setFocus(focusInput)
		}
		return a, nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		a.follow = a.chat.AtBottom()
		return a, cmd
	}

	if a.focus == focusInput {
		return a.updateInput(msg)
	}
	return a.updateBudget(msg)
}

func (a App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.submit()
		return a, nil
	case tea.KeyEsc:
		a.setFocus(focusBudget)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) updateBudget(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := a.state.Document.Len()

	switch msg.String() {
	case "q":
		return a, a.quit()
	case "?":
		a.showHelp = true
	case "j", "down":
		if a.cursor < n-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g", "home":
		a.cursor = 0
	case "G", "end":
		if n > 0 {
			a.cursor = n - 1
		}
	case "enter", " ":
		a.toggleSelected()
	case "i", "/", "esc":
		a.setFocus(focusInput)
	}
	return a, nil
}

func (a *App) submit() {
	_, err := a.conv.Submit(a.input.Value())
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		// Blank input changes nothing.
		return
	case errors.Is(err, conversation.ErrClosed):
		a.closed = true
		a.alert = "conversation closed"
		return
	case err != nil:
		a.alert = err.Error()
		return
	}

	a.input.Reset()
	a.alert = ""
	a.follow = true
	a.setState(a.conv.State())
}

func (a *App) toggleSelected() {
	sections := a.state.Document.Sections
	if a.cursor < 0 || a.cursor >= len(sections) {
		return
	}
	if err := a.conv.Toggle(sections[a.cursor].Title); err != nil {
		a.alert = err.Error()
		return
	}
	a.setState(a.conv.State())
}

func (a *App) setFocus(f focus) {
	a.focus = f
	if f == focusInput {
		a.input.Focus()
	} else {
		a.input.Blur()
	}
}

func (a *App) applyEvent(ev conversation.Event) {
	a.setState(ev.State)

	switch ev.Type {
	case conversation.EventEstimationFailed:
		a.alert = fmt.Sprintf("turn %d: estimation failed", ev.TurnID)
	case conversation.EventReplyAppended:
		if ev.Error != "" {
			a.alert = fmt.Sprintf("turn %d: budget change rejected", ev.TurnID)
		}
	}
}

// setState adopts st unless it is older than what is already shown.
func (a *App) setState(st conversation.State) {
	if st.Revision < a.state.Revision {
		return
	}
	a.state = st

	if n := st.Document.Len(); a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
	a.refreshChat()
}

func (a App) quit() tea.Cmd {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	return tea.Quit
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// paneWidths splits the content width between the chat and budget panes.
func (a App) paneWidths() (chatW, budgetW int) {
	weights := []int{3, 2}
	if a.isCompactLayout() {
		weights = []int{1, 1}
	}
	w := components.LayoutRow(a.contentWidth(), weights...)
	return w[0], w[1]
}

func (a App) contentHeight() int {
	h := a.height - 2 // header + status bar
	if h < minContentHeight {
		h = minContentHeight
	}
	return h
}

// layout sizes the chat viewport and input to the current window.
func (a *App) layout() {
	chatW, _ := a.paneWidths()
	innerW := components.CardInnerWidth(chatW)

	// border (2) + title + pending line + input line
	vpH := a.contentHeight() - 5
	if vpH < 1 {
		vpH = 1
	}
	a.chat.Width = innerW
	a.chat.Height = vpH
	a.input.Width = innerW - lipgloss.Width(a.input.Prompt) - 1

	if innerW != a.mdWidth {
		a.md = newMarkdownRenderer(innerW)
		a.mdWidth = innerW
		a.rendered = make(map[int]string)
	}
	a.refreshChat()
}

func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.Active.Markdown),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  budgetchat needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	groups := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Chat", []struct{ key, desc string }{
			{"Enter", "Send message"},
			{"Tab", "Switch to budget"},
			{"PgUp PgDn", "Scroll conversation"},
		}},
		{"Budget", []struct{ key, desc string }{
			{"j k", "Select section"},
			{"Enter Space", "Expand / collapse"},
			{"g G", "First / last section"},
			{"i /", "Back to chat"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, g := range groups {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(g.title))
		b.WriteString("\n")
		for _, bind := range g.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-12s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := a.renderHeader(w)
	statusBar := components.RenderStatusBar(w, a.hints(), a.info(), a.alert)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	chatW, budgetW := a.paneWidths()
	chatPane := components.ContentCard("Conversation", a.renderChatBody(), chatW, contentH-2, a.focus == focusInput)
	budgetPane := a.renderBudgetPane(budgetW, contentH)

	content := components.CardRow([]string{chatPane, budgetPane})
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderHeader(w int) string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := logoStyle.Render(" ◈ budgetchat") + subtitleStyle.Render(" · construction budget")
	right := ""
	if a.state.Busy() {
		right = a.spinner.View() + subtitleStyle.Render(" estimating ")
	}

	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(w).
		MaxWidth(w).
		Render(left + subtitleStyle.Render(strings.Repeat(" ", gap)) + right)
}

func (a App) hints() string {
	if a.focus == focusInput {
		return "[enter]send  [tab]budget  [pgup/pgdn]scroll  [^c]quit"
	}
	return "[j/k]select  [enter]toggle  [tab]chat  [?]help  [q]uit"
}

func (a App) info() string {
	switch {
	case a.closed:
		return "closed"
	case a.state.Busy():
		return fmt.Sprintf("%d pending", len(a.state.Pending))
	default:
		return fmt.Sprintf("%d messages", len(a.state.Messages))
	}
}

// waitForEvent blocks until the controller publishes the next event.
func waitForEvent(ch <-chan conversation.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
