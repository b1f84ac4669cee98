// Package store provides a SQLite-backed archive of completed conversation
// turns. The archive is write-mostly: sessions never resume from it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetchat/internal/conversation"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Archive records the turns of one session.
type Archive struct {
	db        *sql.DB
	sessionID string
}

// Turn is one archived turn.
type Turn struct {
	SessionID string
	TurnID    int
	Prompt    string
	PromptAt  time.Time
	Reply     string
	ReplyAt   time.Time
	Outcome   conversation.Outcome
	Total     decimal.Decimal
	Error     string
}

// ErrNoSession is returned when recording through an archive opened for
// reading only.
var ErrNoSession = errors.New("store: archive has no open session")

// Open opens or creates the archive at dbPath and starts a new session,
// identified by a time-ordered UUID.
func Open(ctx context.Context, dbPath, estimator string) (*Archive, error) {
	db, err := openDB(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO sessions (session_id, started_at, estimator) VALUES (?, ?, ?)",
		id.String(), time.Now().UTC().Format(time.RFC3339Nano), estimator)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("starting session: %w", err)
	}

	return &Archive{db: db, sessionID: id.String()}, nil
}

// OpenHistory opens the archive for listing without starting a session.
func OpenHistory(ctx context.Context, dbPath string) (*Archive, error) {
	db, err := openDB(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

func openDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SessionID returns the id of the session being recorded.
func (a *Archive) SessionID() string {
	return a.sessionID
}

// RecordTurn stores one completed turn.
func (a *Archive) RecordTurn(ctx context.Context, rec conversation.TurnRecord) error {
	if a.sessionID == "" {
		return ErrNoSession
	}
	var errText sql.NullString
	if rec.Err != "" {
		errText = sql.NullString{String: rec.Err, Valid: true}
	}

	_, err := a.db.ExecContext(ctx, `INSERT INTO turns
		(session_id, turn_id, prompt, prompt_at, reply, reply_at, outcome, total, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.sessionID, rec.Prompt.ID, rec.Prompt.Text,
		rec.Prompt.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Reply.Text,
		rec.Reply.Timestamp.UTC().Format(time.RFC3339Nano),
		string(rec.Outcome), rec.Total.String(), errText,
	)
	if err != nil {
		return fmt.Errorf("recording turn %d: %w", rec.Prompt.ID, err)
	}
	return nil
}

// RecentTurns returns up to limit turns across all sessions, newest first.
func (a *Archive) RecentTurns(ctx context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, `SELECT
		session_id, turn_id, prompt, prompt_at, reply, reply_at, outcome, total, error
		FROM turns
		ORDER BY reply_at DESC, turn_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var turns []Turn
	for rows.Next() {
		var (
			t                 Turn
			promptAt, replyAt string
			outcome, total    string
			errText           sql.NullString
		)
		if err := rows.Scan(&t.SessionID, &t.TurnID, &t.Prompt, &promptAt, &t.Reply, &replyAt, &outcome, &total, &errText); err != nil {
			return nil, err
		}
		t.PromptAt, _ = time.Parse(time.RFC3339Nano, promptAt)
		t.ReplyAt, _ = time.Parse(time.RFC3339Nano, replyAt)
		t.Outcome = conversation.Outcome(outcome)
		t.Total, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("turn %d total: %w", t.TurnID, err)
		}
		if errText.Valid {
			t.Error = errText.String
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// TurnCount returns the number of archived turns.
func (a *Archive) TurnCount(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turns").Scan(&count)
	return count, err
}
