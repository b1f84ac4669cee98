// Package chat holds the append-only conversation log.
package chat

import (
	"fmt"
	"time"
)

// Sender identifies who wrote a message.
type Sender string

const (
	User      Sender = "user"
	Assistant Sender = "assistant"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == User || s == Assistant
}

// ParseSender converts a wire value into a Sender.
func ParseSender(v string) (Sender, error) {
	s := Sender(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSender, v)
	}
	return s, nil
}

// Message is one immutable entry of the conversation.
type Message struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}
