package chat

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestAppendAssignsSequentialIDs(t *testing.T) {
	l := NewLog()
	for i, text := range []string{"hola", "add a window", "thanks"} {
		sender := User
		if i%2 == 1 {
			sender = Assistant
		}
		msg, err := l.Append(sender, text)
		if err != nil {
			t.Fatalf("Append(%q): %v", text, err)
		}
		if msg.ID != i+1 {
			t.Fatalf("message %d has id %d", i, msg.ID)
		}
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
}

func TestAppendRejectsBlankText(t *testing.T) {
	l := NewLog()
	for _, text := range []string{"", "   ", "\n\t "} {
		for _, sender := range []Sender{User, Assistant} {
			if _, err := l.Append(sender, text); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Append(%s, %q) err = %v, want ErrInvalidInput", sender, text, err)
			}
		}
	}
	if l.Len() != 0 {
		t.Fatalf("blank appends grew the log to %d", l.Len())
	}
}

func TestAppendRejectsUnknownSender(t *testing.T) {
	l := NewLog()
	if _, err := l.Append(Sender("system"), "hi"); !errors.Is(err, ErrInvalidSender) {
		t.Fatalf("err = %v, want ErrInvalidSender", err)
	}
	if _, err := ParseSender("robot"); !errors.Is(err, ErrInvalidSender) {
		t.Fatalf("ParseSender err = %v, want ErrInvalidSender", err)
	}
	if s, err := ParseSender("assistant"); err != nil || s != Assistant {
		t.Fatalf("ParseSender(assistant) = %q, %v", s, err)
	}
}

func TestAppendStampsClock(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l := NewLog(WithClock(fixedClock(start)))

	first, _ := l.Append(User, "one")
	second, _ := l.Append(Assistant, "two")
	if !first.Timestamp.Equal(start.Add(time.Second)) {
		t.Fatalf("first timestamp = %v", first.Timestamp)
	}
	if !second.Timestamp.After(first.Timestamp) {
		t.Fatalf("timestamps not increasing: %v then %v", first.Timestamp, second.Timestamp)
	}
}

func TestRenderReturnsCopy(t *testing.T) {
	l := NewLog()
	_, _ = l.Append(User, "original")

	out := l.Render()
	out[0].Text = "tampered"

	if got := l.Render()[0].Text; got != "original" {
		t.Fatalf("Render exposed internal storage: %q", got)
	}
}

func TestLast(t *testing.T) {
	l := NewLog()
	if _, ok := l.Last(); ok {
		t.Fatal("Last on empty log reported a message")
	}
	_, _ = l.Append(User, "a")
	_, _ = l.Append(Assistant, "b")

	last, ok := l.Last()
	if !ok || last.Text != "b" || last.Sender != Assistant {
		t.Fatalf("Last() = %+v, %v", last, ok)
	}
}
