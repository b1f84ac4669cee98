package conversation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetchat/internal/chat"
)

// Outcome classifies how a turn ended.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"   // reply appended, document changed
	OutcomeUnchanged Outcome = "unchanged" // reply appended, no mutation
	OutcomeRejected  Outcome = "rejected"  // reply appended, mutation refused
	OutcomeFailed    Outcome = "failed"    // failure notice appended
)

// TurnRecord describes one completed turn.
type TurnRecord struct {
	Prompt  chat.Message
	Reply   chat.Message
	Outcome Outcome
	Total   decimal.Decimal
	Err     string
}

// Recorder receives every completed turn. It is called from the controller's
// loop, so implementations should return quickly.
type Recorder interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
}
