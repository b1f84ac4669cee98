// Package daemon serves one conversation over a local HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/conversation"
	"github.com/theirongolddev/budgetchat/internal/ledger"
	"github.com/theirongolddev/budgetchat/internal/money"
)

const maxTurnBody = 64 << 10

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger
}

// Conversation is the part of the controller the API drives.
type Conversation interface {
	Submit(text string) (chat.Message, error)
	Toggle(title string) error
	State() conversation.State
	Subscribe(buffer int) (<-chan conversation.Event, func())
}

// SectionView is a section with its derived values.
type SectionView struct {
	Title          string        `json:"title"`
	Open           bool          `json:"open"`
	Total          string        `json:"total"`
	TotalFormatted string        `json:"total_formatted"`
	Items          []ledger.Item `json:"items"`
}

// StateView is served at /v1/state and embedded in every event.
type StateView struct {
	Revision       int64          `json:"revision"`
	Messages       []chat.Message `json:"messages"`
	Sections       []SectionView  `json:"sections"`
	Total          string         `json:"total"`
	TotalFormatted string         `json:"total_formatted"`
	Pending        []int          `json:"pending"`
}

// Event is a conversation change as streamed to clients.
type Event struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	TurnID    int           `json:"turn_id,omitempty"`
	Message   *chat.Message `json:"message,omitempty"`
	Section   string        `json:"section,omitempty"`
	Error     string        `json:"error,omitempty"`
	State     StateView     `json:"state"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Messages        int       `json:"messages"`
	Pending         int       `json:"pending"`
	Total           string    `json:"total"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	conv   Conversation
	logger *slog.Logger

	mu        sync.RWMutex
	startedAt time.Time
	events    []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service around conv.
func New(cfg Config, conv Conversation) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		cfg:       cfg,
		conv:      conv,
		logger:    logger,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/state", s.handleState)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("POST /v1/turns", s.handleTurn)
	mux.HandleFunc("POST /v1/sections/{title}/toggle", s.handleToggle)
	return mux
}

// Run serves the API and relays conversation events until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.Attach(ctx)

	s.logger.Info("daemon listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// Attach subscribes to the conversation and relays its events into the ring
// buffer and to stream subscribers until ctx is canceled or the conversation
// closes. It returns once the subscription is in place.
func (s *Service) Attach(ctx context.Context) {
	events, cancel := s.conv.Subscribe(s.cfg.EventsBuffer)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.publishEvent(eventView(ev))
			}
		}
	}()
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func eventView(ev conversation.Event) Event {
	return Event{
		ID:        ev.ID,
		Type:      string(ev.Type),
		Timestamp: ev.Timestamp,
		TurnID:    ev.TurnID,
		Message:   ev.Message,
		Section:   ev.Section,
		Error:     ev.Error,
		State:     stateView(ev.State),
	}
}

func stateView(st conversation.State) StateView {
	sections := make([]SectionView, 0, len(st.Document.Sections))
	for _, sec := range st.Document.Sections {
		items := sec.Items
		if items == nil {
			items = []ledger.Item{}
		}
		sections = append(sections, SectionView{
			Title:          sec.Title,
			Open:           st.Disclosure.IsOpen(sec.Title),
			Total:          sec.Total().StringFixed(ledger.Scale),
			TotalFormatted: money.Format(sec.Total()),
			Items:          items,
		})
	}
	messages := st.Messages
	if messages == nil {
		messages = []chat.Message{}
	}
	pending := st.Pending
	if pending == nil {
		pending = []int{}
	}

	total := st.Total()
	return StateView{
		Revision:       st.Revision,
		Messages:       messages,
		Sections:       sections,
		Total:          total.StringFixed(ledger.Scale),
		TotalFormatted: money.Format(total),
		Pending:        pending,
	}
}

func (s *Service) snapshotStatus() Status {
	st := s.conv.State()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		Messages:        len(st.Messages),
		Pending:         len(st.Pending),
		Total:           st.Total().StringFixed(ledger.Scale),
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateView(s.conv.State()))
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

type turnRequest struct {
	Text string `json:"text"`
}

func (s *Service) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTurnBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding turn: %w", err))
		return
	}

	msg, err := s.conv.Submit(req.Text)
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, conversation.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		s.logger.Debug("turn accepted", "turn", msg.ID)
		writeJSON(w, http.StatusAccepted, msg)
	}
}

func (s *Service) handleToggle(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	err := s.conv.Toggle(title)
	switch {
	case errors.Is(err, ledger.ErrSectionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, conversation.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, stateView(s.conv.State()))
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	current := Event{
		Type:      "state",
		Timestamp: time.Now(),
		State:     stateView(s.conv.State()),
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
