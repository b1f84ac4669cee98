// Package estimate connects a conversation to the collaborator that turns a
// chat history into an assistant reply and, optionally, a budget change.
package estimate

import (
	"context"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/ledger"
)

// Request is the input of one estimation: the full history, including the
// message that triggered it, and the document as it stood at dispatch.
type Request struct {
	History  []chat.Message
	Document ledger.Document
}

// Reply is the outcome of a successful estimation. Mutation is nil when the
// turn does not change the budget.
type Reply struct {
	Text     string
	Mutation ledger.Mutation
}

// Estimator produces a reply for a conversational turn. Implementations must
// honor ctx cancellation and must not retain or modify the request.
type Estimator interface {
	Estimate(ctx context.Context, req Request) (Reply, error)
}

// Func adapts a plain function to the Estimator interface.
type Func func(ctx context.Context, req Request) (Reply, error)

// Estimate calls f.
func (f Func) Estimate(ctx context.Context, req Request) (Reply, error) {
	return f(ctx, req)
}
