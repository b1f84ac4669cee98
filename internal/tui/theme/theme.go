// Package theme defines color themes for the budgetchat TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Background   lipgloss.Color // Main app background
	Surface      lipgloss.Color // Card/panel backgrounds
	Selection    lipgloss.Color // Selected section row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // Focused pane border
	TextDim      lipgloss.Color // Hints, timestamps
	TextMuted    lipgloss.Color // Labels, item details
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	User         lipgloss.Color // User message label
	Assistant    lipgloss.Color // Assistant message label
	Money        lipgloss.Color // Amounts
	Warn         lipgloss.Color
	Error        lipgloss.Color
	// Markdown is the glamour standard style used for assistant replies.
	Markdown string
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	Selection:    lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	User:         lipgloss.Color("#4385BE"),
	Assistant:    lipgloss.Color("#3AA99F"),
	Money:        lipgloss.Color("#879A39"),
	Warn:         lipgloss.Color("#DA702C"),
	Error:        lipgloss.Color("#D14D41"),
	Markdown:     "dark",
}

// CatppuccinMocha is a warm pastel theme.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	Selection:    lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	User:         lipgloss.Color("#F5C2E7"),
	Assistant:    lipgloss.Color("#89B4FA"),
	Money:        lipgloss.Color("#A6E3A1"),
	Warn:         lipgloss.Color("#FAB387"),
	Error:        lipgloss.Color("#F38BA8"),
	Markdown:     "dracula",
}

// Paper is a light theme for bright terminals.
var Paper = Theme{
	Name:         "paper",
	Background:   lipgloss.Color("#FFFCF0"),
	Surface:      lipgloss.Color("#F2F0E5"),
	Selection:    lipgloss.Color("#E6E4D9"),
	Border:       lipgloss.Color("#CECDC3"),
	BorderAccent: lipgloss.Color("#24837B"),
	TextDim:      lipgloss.Color("#B7B5AC"),
	TextMuted:    lipgloss.Color("#6F6E69"),
	TextPrimary:  lipgloss.Color("#100F0F"),
	Accent:       lipgloss.Color("#24837B"),
	AccentBright: lipgloss.Color("#3AA99F"),
	User:         lipgloss.Color("#205EA6"),
	Assistant:    lipgloss.Color("#24837B"),
	Money:        lipgloss.Color("#66800B"),
	Warn:         lipgloss.Color("#BC5215"),
	Error:        lipgloss.Color("#AF3029"),
	Markdown:     "light",
}

// Terminal uses the terminal's own 16 ANSI colors.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	Selection:    lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	User:         lipgloss.Color("4"),
	Assistant:    lipgloss.Color("6"),
	Money:        lipgloss.Color("2"),
	Warn:         lipgloss.Color("3"),
	Error:        lipgloss.Color("1"),
	Markdown:     "dark",
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, Paper, Terminal}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
