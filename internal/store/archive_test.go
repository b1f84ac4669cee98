package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/conversation"
)

func record(id int, prompt string, at time.Time, outcome conversation.Outcome, total int64) conversation.TurnRecord {
	return conversation.TurnRecord{
		Prompt:  chat.Message{ID: id, Text: prompt, Sender: chat.User, Timestamp: at},
		Reply:   chat.Message{ID: id + 1, Text: "reply to " + prompt, Sender: chat.Assistant, Timestamp: at.Add(time.Second)},
		Outcome: outcome,
		Total:   decimal.NewFromInt(total),
	}
}

func TestArchiveRecordsTurns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "turns.db")

	a, err := Open(ctx, path, "canned")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	id, err := uuid.Parse(a.SessionID())
	if err != nil {
		t.Fatalf("session id %q: %v", a.SessionID(), err)
	}
	if id.Version() != 7 {
		t.Fatalf("session id version = %d, want 7", id.Version())
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := a.RecordTurn(ctx, record(1, "add a window", base, conversation.OutcomeApplied, 10970)); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	failed := record(3, "and another", base.Add(time.Minute), conversation.OutcomeFailed, 10970)
	failed.Err = "conversation: estimation failed: context deadline exceeded"
	if err := a.RecordTurn(ctx, failed); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}

	n, err := a.TurnCount(ctx)
	if err != nil || n != 2 {
		t.Fatalf("TurnCount = %d, %v", n, err)
	}

	turns, err := a.RecentTurns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns", len(turns))
	}
	if turns[0].Prompt != "and another" || turns[0].Outcome != conversation.OutcomeFailed {
		t.Fatalf("newest turn = %+v", turns[0])
	}
	if turns[0].Error == "" {
		t.Fatal("failed turn lost its error")
	}
	if turns[1].Error != "" {
		t.Fatalf("applied turn has error %q", turns[1].Error)
	}
	if !turns[1].Total.Equal(decimal.NewFromInt(10970)) {
		t.Fatalf("total = %s", turns[1].Total)
	}
	if !turns[1].PromptAt.Equal(base) {
		t.Fatalf("prompt_at = %v, want %v", turns[1].PromptAt, base)
	}
}

func TestArchiveSessionsShareFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "turns.db")

	first, err := Open(ctx, path, "canned")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := first.RecordTurn(ctx, record(1, "one", at, conversation.OutcomeUnchanged, 10690)); err != nil {
		t.Fatal(err)
	}
	_ = first.Close()

	second, err := Open(ctx, path, "http")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	if second.SessionID() == first.SessionID() {
		t.Fatal("reopened archive reused the session id")
	}
	if err := second.RecordTurn(ctx, record(1, "two", at.Add(time.Hour), conversation.OutcomeUnchanged, 10690)); err != nil {
		t.Fatalf("same turn id in a new session: %v", err)
	}

	turns, err := second.RecentTurns(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].Prompt != "two" {
		t.Fatalf("RecentTurns(1) = %+v", turns)
	}
}

func TestOpenHistoryIsReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "turns.db")

	w, err := Open(ctx, path, "canned")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := w.RecordTurn(ctx, record(2, "add tiling", at, conversation.OutcomeApplied, 10970)); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	_ = w.Close()

	r, err := OpenHistory(ctx, path)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer r.Close()

	if r.SessionID() != "" {
		t.Errorf("history archive has session %q", r.SessionID())
	}
	if err := r.RecordTurn(ctx, record(4, "more", at, conversation.OutcomeApplied, 1)); !errors.Is(err, ErrNoSession) {
		t.Errorf("RecordTurn err = %v, want ErrNoSession", err)
	}
	turns, err := r.RecentTurns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].Prompt != "add tiling" {
		t.Fatalf("turns = %+v", turns)
	}
}
