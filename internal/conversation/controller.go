// Package conversation drives a budget-building chat: it owns the message log,
// the authoritative budget document and the section disclosure state, and
// runs estimations concurrently without letting them race on that state.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/disclosure"
	"github.com/theirongolddev/budgetchat/internal/estimate"
	"github.com/theirongolddev/budgetchat/internal/ledger"
)

const recordTimeout = 5 * time.Second

// Controller serializes every read and write of a conversation through one
// loop goroutine. Estimations run on their own goroutines and hand their
// results back to the loop.
type Controller struct {
	estimator     estimate.Estimator
	timeout       time.Duration
	logger        *slog.Logger
	now           func() time.Time
	recorder      Recorder
	greeting      string
	failureNotice string
	initial       ledger.Document
	initialErr    error

	reqs    chan func(*session)
	results chan result
	stop    chan struct{}
	done    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	final     State
}

type result struct {
	turn  chat.Message
	reply estimate.Reply
	err   error
}

// session is the state owned by the loop goroutine.
type session struct {
	log     *chat.Log
	doc     ledger.Document
	open    disclosure.State
	pending []int
	closed  bool
	idle    []chan struct{}

	nextEventID int64
	nextSubID   int
	subs        map[int]chan Event
}

// New starts a controller around estimator. Call Close to release it.
func New(estimator estimate.Estimator, opts ...Option) *Controller {
	c := &Controller{
		estimator:     estimator,
		timeout:       DefaultTimeout,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
		greeting:      DefaultGreeting,
		failureNotice: DefaultFailureNotice,
		initial:       ledger.Seed(),
		reqs:          make(chan func(*session)),
		results:       make(chan result),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.initialErr != nil {
		c.logger.Warn("starting document rejected, using the default budget", "err", c.initialErr)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	s := &session{
		log:  chat.NewLog(chat.WithClock(c.now)),
		doc:  c.initial,
		open: disclosure.Seed(c.initial),
		subs: make(map[int]chan Event),
	}
	if strings.TrimSpace(c.greeting) != "" {
		_, _ = s.log.Append(chat.Assistant, c.greeting)
	}

	go c.run(s)
	return c
}

func (c *Controller) run(s *session) {
	defer close(c.done)
	for {
		select {
		case fn := <-c.reqs:
			fn(s)
		case r := <-c.results:
			c.apply(s, r)
		case <-c.stop:
			c.final = s.snapshot()
			for id, ch := range s.subs {
				close(ch)
				delete(s.subs, id)
			}
			return
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (c *Controller) do(fn func(*session)) error {
	finished := make(chan struct{})
	wrapped := func(s *session) {
		defer close(finished)
		fn(s)
	}
	select {
	case c.reqs <- wrapped:
	case <-c.done:
		return ErrClosed
	}
	<-finished
	return nil
}

// Submit appends a user message and starts estimating a reply for it. It
// returns as soon as the message is in the log. Blank text is rejected with
// chat.ErrInvalidInput and changes nothing.
func (c *Controller) Submit(text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, chat.ErrInvalidInput
	}

	var (
		msg chat.Message
		err error
	)
	if doErr := c.do(func(s *session) {
		if s.closed {
			err = ErrClosed
			return
		}
		msg, err = s.log.Append(chat.User, text)
		if err != nil {
			return
		}
		s.pending = append(s.pending, msg.ID)
		c.dispatch(s, msg)
		c.publish(s, Event{Type: EventTurnSubmitted, TurnID: msg.ID, Message: &msg})
	}); doErr != nil {
		return chat.Message{}, doErr
	}
	return msg, err
}

// dispatch starts an estimation for turn against the current history and
// document. Both are copies, so later changes cannot reach the estimator.
func (c *Controller) dispatch(s *session, turn chat.Message) {
	req := estimate.Request{
		History:  s.log.Render(),
		Document: s.doc.Clone(),
	}
	c.logger.Debug("estimation dispatched", "turn", turn.ID, "history", len(req.History))

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		reply, err := c.runEstimator(ctx, req)
		c.results <- result{turn: turn, reply: reply, err: err}
	}()
}

// runEstimator calls the estimator but gives up at the deadline even when the
// estimator ignores ctx.
func (c *Controller) runEstimator(ctx context.Context, req estimate.Request) (estimate.Reply, error) {
	type outcome struct {
		reply estimate.Reply
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("estimator panic: %v", r)}
			}
		}()
		reply, err := c.estimator.Estimate(ctx, req)
		ch <- outcome{reply: reply, err: err}
	}()

	select {
	case o := <-ch:
		return o.reply, o.err
	case <-ctx.Done():
		return estimate.Reply{}, ctx.Err()
	}
}

// apply folds a finished estimation into the session.
func (c *Controller) apply(s *session, r result) {
	s.finish(r.turn.ID)

	if r.err == nil && strings.TrimSpace(r.reply.Text) == "" {
		r.err = errEmptyReply
	}
	if r.err != nil {
		c.fail(s, r)
		return
	}

	outcome := OutcomeUnchanged
	var rejectErr string
	if r.reply.Mutation != nil {
		next, err := r.reply.Mutation.Apply(s.doc)
		if err != nil {
			c.logger.Warn("mutation rejected", "turn", r.turn.ID, "err", err)
			outcome = OutcomeRejected
			rejectErr = err.Error()
		} else {
			s.doc = next
			s.open = s.open.Sync(next)
			outcome = OutcomeApplied
		}
	}

	msg, err := s.log.Append(chat.Assistant, r.reply.Text)
	if err != nil {
		c.logger.Error("appending reply", "turn", r.turn.ID, "err", err)
		return
	}
	c.logger.Info("turn completed", "turn", r.turn.ID, "outcome", outcome, "total", s.doc.Total().String())

	c.record(TurnRecord{Prompt: r.turn, Reply: msg, Outcome: outcome, Total: s.doc.Total(), Err: rejectErr})
	c.publish(s, Event{Type: EventReplyAppended, TurnID: r.turn.ID, Message: &msg, Error: rejectErr})
}

func (c *Controller) fail(s *session, r result) {
	err := fmt.Errorf("%w: %w", ErrEstimationFailed, r.err)
	c.logger.Warn("estimation failed", "turn", r.turn.ID, "err", r.err)

	msg, appendErr := s.log.Append(chat.Assistant, c.failureNotice)
	if appendErr != nil {
		c.logger.Error("appending failure notice", "turn", r.turn.ID, "err", appendErr)
		return
	}

	c.record(TurnRecord{Prompt: r.turn, Reply: msg, Outcome: OutcomeFailed, Total: s.doc.Total(), Err: err.Error()})
	c.publish(s, Event{Type: EventEstimationFailed, TurnID: r.turn.ID, Message: &msg, Error: err.Error()})
}

func (c *Controller) record(rec TurnRecord) {
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := c.recorder.RecordTurn(ctx, rec); err != nil {
		c.logger.Warn("recording turn", "turn", rec.Prompt.ID, "err", err)
	}
}

// Toggle opens or closes the named section. Unknown titles return
// ledger.ErrSectionNotFound and change nothing.
func (c *Controller) Toggle(title string) error {
	var err error
	if doErr := c.do(func(s *session) {
		if s.closed {
			err = ErrClosed
			return
		}
		next, toggleErr := s.open.Toggle(s.doc, title)
		if toggleErr != nil {
			c.logger.Debug("toggle ignored", "section", title, "err", toggleErr)
			err = toggleErr
			return
		}
		s.open = next
		c.publish(s, Event{Type: EventSectionToggled, Section: title})
	}); doErr != nil {
		return doErr
	}
	return err
}

// State returns a copy of the conversation. After Close it returns the
// final state.
func (c *Controller) State() State {
	var st State
	if err := c.do(func(s *session) { st = s.snapshot() }); err != nil {
		return c.final
	}
	return st
}

// Subscribe returns a channel of events and a function that cancels the
// subscription. Events are dropped for subscribers whose buffer is full.
// The channel is closed on cancel or when the controller closes.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	id := 0
	if err := c.do(func(s *session) {
		s.nextSubID++
		id = s.nextSubID
		s.subs[id] = ch
	}); err != nil {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			_ = c.do(func(s *session) {
				if sub, ok := s.subs[id]; ok {
					close(sub)
					delete(s.subs, id)
				}
			})
		})
	}
}

// Wait blocks until no estimation is in flight.
func (c *Controller) Wait() {
	idle := make(chan struct{})
	if err := c.do(func(s *session) { s.whenIdle(idle) }); err != nil {
		return
	}
	<-idle
}

// Close rejects new work, cancels in-flight estimations (they resolve as
// failures), waits for them to be applied and stops the loop.
func (c *Controller) Close() error {
	err := ErrClosed
	c.closeOnce.Do(func() {
		idle := make(chan struct{})
		_ = c.do(func(s *session) {
			s.closed = true
			s.whenIdle(idle)
		})
		c.cancel()
		<-idle
		close(c.stop)
		<-c.done
		err = nil
	})
	return err
}

func (c *Controller) publish(s *session, ev Event) {
	s.nextEventID++
	ev.ID = s.nextEventID
	ev.Timestamp = c.now()
	ev.State = s.snapshot()

	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Debug("subscriber lagging, event dropped", "subscriber", id, "event", ev.Type)
		}
	}
}

func (s *session) snapshot() State {
	open := make(disclosure.State, len(s.open))
	for k, v := range s.open {
		open[k] = v
	}
	return State{
		Revision:   s.nextEventID,
		Messages:   s.log.Render(),
		Document:   s.doc.Clone(),
		Disclosure: open,
		Pending:    append([]int{}, s.pending...),
	}
}

func (s *session) finish(turnID int) {
	if i := slices.Index(s.pending, turnID); i >= 0 {
		s.pending = slices.Delete(s.pending, i, i+1)
	}
	if len(s.pending) == 0 {
		for _, ch := range s.idle {
			close(ch)
		}
		s.idle = nil
	}
}

func (s *session) whenIdle(ch chan struct{}) {
	if len(s.pending) == 0 {
		close(ch)
		return
	}
	s.idle = append(s.idle, ch)
}
