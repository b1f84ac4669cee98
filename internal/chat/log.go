package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidInput is returned for empty or whitespace-only text.
	ErrInvalidInput = errors.New("chat: empty message")
	// ErrInvalidSender is returned for a sender other than user or assistant.
	ErrInvalidSender = errors.New("chat: unknown sender")
)

// Log is an append-only sequence of messages. It is not safe for concurrent
// use; the conversation controller owns it from a single goroutine.
type Log struct {
	messages []Message
	now      func() time.Time
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLog returns an empty log.
func NewLog(opts ...LogOption) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append stamps and stores a new message with the next sequential id.
func (l *Log) Append(sender Sender, text string) (Message, error) {
	if !sender.Valid() {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidSender, sender)
	}
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrInvalidInput
	}

	msg := Message{
		ID:        l.nextID(),
		Text:      text,
		Sender:    sender,
		Timestamp: l.now(),
	}
	l.messages = append(l.messages, msg)
	return msg, nil
}

func (l *Log) nextID() int {
	maxID := 0
	for _, m := range l.messages {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	return maxID + 1
}

// Render returns a copy of the full history in append order.
func (l *Log) Render() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// Last returns the most recent message.
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}
