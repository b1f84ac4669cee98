package conversation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/disclosure"
	"github.com/theirongolddev/budgetchat/internal/ledger"
)

// EventType names a change in the conversation.
type EventType string

const (
	EventTurnSubmitted    EventType = "turn_submitted"
	EventReplyAppended    EventType = "reply_appended"
	EventEstimationFailed EventType = "estimation_failed"
	EventSectionToggled   EventType = "section_toggled"
)

// State is a point-in-time copy of the conversation. Nothing in it is shared
// with the controller. Revision is the id of the last event published before
// the copy was taken, so a larger revision is never older.
type State struct {
	Revision   int64            `json:"revision"`
	Messages   []chat.Message   `json:"messages"`
	Document   ledger.Document  `json:"document"`
	Disclosure disclosure.State `json:"disclosure"`
	Pending    []int            `json:"pending"`
}

// Total is the grand total of the document.
func (s State) Total() decimal.Decimal {
	return s.Document.Total()
}

// Busy reports whether any estimation is in flight.
func (s State) Busy() bool {
	return len(s.Pending) > 0
}

// Event is delivered to subscribers after each change, with the state as it
// stood right after the change.
type Event struct {
	ID        int64         `json:"id"`
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	TurnID    int           `json:"turn_id,omitempty"`
	Message   *chat.Message `json:"message,omitempty"`
	Section   string        `json:"section,omitempty"`
	Error     string        `json:"error,omitempty"`
	State     State         `json:"state"`
}
