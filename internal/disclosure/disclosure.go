// Package disclosure tracks which budget sections are expanded in the UI.
// It is kept apart from the ledger and joined to it by section title.
package disclosure

import (
	"fmt"
	"maps"

	"github.com/theirongolddev/budgetchat/internal/ledger"
)

// State maps section titles to their open flag. A missing title is closed.
// State values are never mutated in place; every change returns a new map.
type State map[string]bool

// Seed opens the first section of doc and closes the rest.
func Seed(doc ledger.Document) State {
	s := make(State, doc.Len())
	for i, title := range doc.Titles() {
		s[title] = i == 0
	}
	return s
}

// IsOpen reports whether the section is expanded.
func (s State) IsOpen(title string) bool {
	return s[title]
}

// Toggle flips the named section and leaves every other flag alone.
// Unknown titles return ledger.ErrSectionNotFound and an unchanged state.
func (s State) Toggle(doc ledger.Document, title string) (State, error) {
	if doc.Index(title) < 0 {
		return s, fmt.Errorf("toggle: %w: %q", ledger.ErrSectionNotFound, title)
	}
	next := maps.Clone(s)
	if next == nil {
		next = make(State, 1)
	}
	next[title] = !s[title]
	return next, nil
}

// Sync aligns the state with doc: sections that are new stay closed and
// flags for removed sections are dropped.
func (s State) Sync(doc ledger.Document) State {
	next := make(State, doc.Len())
	for _, title := range doc.Titles() {
		next[title] = s[title]
	}
	return next
}

// Open returns the titles of expanded sections in document order.
func (s State) Open(doc ledger.Document) []string {
	var open []string
	for _, title := range doc.Titles() {
		if s[title] {
			open = append(open, title)
		}
	}
	return open
}
