// Package generation tracks one in-flight streaming text generation. The
// controller holds a single session slot: chunks append to the accumulated
// text while the session runs, and a completion, error, or local cancel
// terminates it. Messages whose generation id does not match the active
// session are dropped, which keeps stale messages from a superseded or
// cancelled generation from mutating state.
package generation

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/uixray/figma-llm-plugin-sub001/metric"
)

// ErrActive is returned by Begin while a generation is already running.
var ErrActive = errors.New("a generation is already running")

// Status is the lifecycle state of the session slot.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusErrored
	StatusCancelled
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusErrored:
		return "errored"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session handed to observers.
type Snapshot struct {
	ID         string
	Status     Status
	Text       string
	Tokens     int
	DurationMS int64
	Cost       float64
	Err        string
}

// Observer is notified after every state change, with the post-change
// snapshot. Called while no session lock is held.
type Observer func(Snapshot)

// Session is the single generation slot.
type Session struct {
	logger  *slog.Logger
	metrics *metric.Metrics

	mu       sync.Mutex
	id       string
	status   Status
	text     string
	tokens   int
	duration int64
	cost     float64
	errMsg   string
	observer Observer
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger.With("component", "generation")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithObserver sets the state-change observer.
func WithObserver(fn Observer) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// New creates an idle session slot.
func New(opts ...Option) *Session {
	s := &Session{
		logger: slog.Default().With("component", "generation"),
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:         s.id,
		Status:     s.status,
		Text:       s.text,
		Tokens:     s.tokens,
		DurationMS: s.duration,
		Cost:       s.cost,
		Err:        s.errMsg,
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.observer != nil {
		s.observer(snap)
	}
}

// Begin resets the slot and enters running. The host has not assigned a
// generation id yet; Attach supplies it when generation-started arrives.
// Terminal states reset to a fresh run; a running session refuses.
func (s *Session) Begin() error {
	s.mu.Lock()
	if s.status == StatusRunning {
		s.mu.Unlock()
		return ErrActive
	}
	s.id = ""
	s.status = StatusRunning
	s.text = ""
	s.tokens = 0
	s.duration = 0
	s.cost = 0
	s.errMsg = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Attach records the host-assigned generation id. Ignored unless the session
// is running without an id yet.
func (s *Session) Attach(id string) {
	s.mu.Lock()
	if s.status != StatusRunning || s.id != "" || id == "" {
		s.mu.Unlock()
		return
	}
	s.id = id
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// matchLocked reports whether a message for generation id belongs to the
// active session.
func (s *Session) matchLocked(id string) bool {
	return s.status == StatusRunning && s.id != "" && s.id == id
}

// ApplyChunk appends a streamed fragment and replaces the token count with
// the host's cumulative figure. Mismatched or out-of-session chunks are
// dropped.
func (s *Session) ApplyChunk(id, fragment string, tokens int) {
	s.mu.Lock()
	if !s.matchLocked(id) {
		s.mu.Unlock()
		s.logger.Debug("dropping stale chunk", "generation_id", id)
		return
	}
	s.text += fragment
	s.tokens = tokens
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Complete terminates the session with the host's final text and token
// count. The final values replace the accumulated ones; the host's report is
// authoritative even when it differs from the sum of chunks.
func (s *Session) Complete(id, fullText string, tokens int, durationMS int64, cost float64) {
	s.mu.Lock()
	if !s.matchLocked(id) {
		s.mu.Unlock()
		s.logger.Debug("dropping stale completion", "generation_id", id)
		return
	}
	s.status = StatusCompleted
	s.text = fullText
	s.tokens = tokens
	s.duration = durationMS
	s.cost = cost
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.metrics.GenerationFinished(StatusCompleted.String())
	s.notify(snap)
}

// Fail terminates the session with a host-reported error. The accumulated
// text is kept for display.
func (s *Session) Fail(id, message string) {
	s.mu.Lock()
	if !s.matchLocked(id) {
		s.mu.Unlock()
		s.logger.Debug("dropping stale generation error", "generation_id", id)
		return
	}
	s.status = StatusErrored
	s.errMsg = message
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.metrics.GenerationFinished(StatusErrored.String())
	s.notify(snap)
}

// Abort terminates a running session with a local error, regardless of
// whether the host ever assigned an id. Used when the generate request
// itself could not be sent.
func (s *Session) Abort(message string) {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}
	s.id = ""
	s.status = StatusErrored
	s.errMsg = message
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.metrics.GenerationFinished(StatusErrored.String())
	s.notify(snap)
}

// Cancel moves a running session to cancelled and clears the active id so a
// late completion or error cannot revive it. It returns the id the host
// should be told to stop, which is empty when the host never announced one.
// The transition is optimistic: local state flips before the host hears
// about it.
func (s *Session) Cancel() (id string, ok bool) {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return "", false
	}
	id = s.id
	s.id = ""
	s.status = StatusCancelled
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.metrics.GenerationFinished(StatusCancelled.String())
	s.notify(snap)
	return id, true
}

// Running reports whether a generation is in flight.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusRunning
}
