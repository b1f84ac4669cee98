package conversation

import (
	"log/slog"
	"time"

	"github.com/theirongolddev/budgetchat/internal/ledger"
)

const (
	// DefaultTimeout bounds each estimation.
	DefaultTimeout = 30 * time.Second

	// DefaultGreeting opens every conversation.
	DefaultGreeting = "Hi! I'm your construction budget assistant. Tell me about your project and I'll help you put together a detailed budget. What kind of work do you need to estimate?"

	// DefaultFailureNotice is appended when an estimation fails or times out.
	DefaultFailureNotice = "Sorry, I couldn't process that request. The budget has not changed. Please try again."
)

// Option configures a Controller.
type Option func(*Controller)

// WithDocument sets the starting document. The default is ledger.Seed().
// A document that ledger.NewDocument rejects is logged and the default kept.
func WithDocument(doc ledger.Document) Option {
	return func(c *Controller) {
		checked, err := ledger.NewDocument(doc.Sections...)
		if err != nil {
			c.initialErr = err
			return
		}
		c.initial = checked
	}
}

// WithTimeout bounds each estimation. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the timestamp source for messages and events.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRecorder archives each completed turn.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithGreeting sets the first assistant message. Empty disables it.
func WithGreeting(text string) Option {
	return func(c *Controller) { c.greeting = text }
}

// WithFailureNotice sets the message appended for failed estimations.
// Blank text keeps the default.
func WithFailureNotice(text string) Option {
	return func(c *Controller) {
		if text != "" {
			c.failureNotice = text
		}
	}
}
