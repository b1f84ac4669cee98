package estimate

import (
	"context"
	"time"
)

// DefaultCannedReply is the offline assistant's answer to every turn.
const DefaultCannedReply = "I've updated the budget based on your request. You can see the changes in the panel on the right. Is there any specific change you'd like to make?"

// DefaultCannedDelay mimics the latency of a real collaborator.
const DefaultCannedDelay = time.Second

// Canned replies with a fixed text after a fixed delay and never changes the
// budget. It is the default when no remote estimator is configured.
type Canned struct {
	Text  string
	Delay time.Duration
}

// NewCanned returns a Canned estimator with the default reply and delay.
func NewCanned() *Canned {
	return &Canned{Text: DefaultCannedReply, Delay: DefaultCannedDelay}
}

// Estimate waits for Delay, then returns Text.
func (c *Canned) Estimate(ctx context.Context, _ Request) (Reply, error) {
	if c.Delay > 0 {
		timer := time.NewTimer(c.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Reply{Text: c.Text}, nil
}
