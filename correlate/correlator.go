// Package correlate pairs outbound requests with their asynchronous
// responses. The channel has no native request/response pairing, so each
// request is tagged with a fresh id and parked in a pending table until a
// message bearing the same id arrives, the deadline fires, or the correlator
// shuts down. Exactly one of resolve/reject fires per request, and the entry
// is removed afterward; stale or foreign ids are ignored without error.
package correlate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uixray/figma-llm-plugin-sub001/channel"
	"github.com/uixray/figma-llm-plugin-sub001/metric"
	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// Correlation errors.
var (
	// ErrTimeout is the rejection for a request whose deadline fired before
	// a matching response arrived.
	ErrTimeout = errors.New("request timed out")
	// ErrClosed is the rejection for requests pending when the correlator
	// shuts down.
	ErrClosed = errors.New("correlator closed")
)

// HostError carries an explicit error message the host returned for a
// correlated request.
type HostError struct {
	Message string
}

func (e *HostError) Error() string {
	return e.Message
}

// outcome is the single-fire result of a pending request.
type outcome struct {
	env *protocol.Envelope
	err error
}

// Pending is the caller's handle on one in-flight request.
type Pending struct {
	id        string
	createdAt time.Time
	done      chan outcome
	timer     *time.Timer
	c         *Correlator
}

// ID returns the correlation id attached to the outbound envelope.
func (p *Pending) ID() string {
	return p.id
}

// Await blocks until the request resolves, is rejected, or ctx ends. A
// context cancellation abandons the entry so a late response cannot fire.
func (p *Pending) Await(ctx context.Context) (*protocol.Envelope, error) {
	select {
	case out := <-p.done:
		return out.env, out.err
	case <-ctx.Done():
		p.c.abandon(p.id)
		return nil, ctx.Err()
	}
}

// Correlator owns the pending-request table.
type Correlator struct {
	ch      channel.Channel
	logger  *slog.Logger
	metrics *metric.Metrics

	mu      sync.Mutex
	pending map[string]*Pending
	closed  bool
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger.With("component", "correlate")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Correlator) {
		c.metrics = m
	}
}

// New creates a Correlator sending over ch.
func New(ch channel.Channel, opts ...Option) *Correlator {
	c := &Correlator{
		ch:      ch,
		logger:  slog.Default().With("component", "correlate"),
		pending: make(map[string]*Pending),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send tags payload with a fresh id, registers the pending entry, and
// dispatches it. timeout of zero disables the deadline. A channel-level send
// failure is returned immediately and the entry is freed without firing.
func (c *Correlator) Send(ctx context.Context, payload protocol.Payload, timeout time.Duration) (*Pending, error) {
	p := &Pending{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		done:      make(chan outcome, 1),
		c:         c,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[p.id] = p
	c.mu.Unlock()
	c.metrics.PendingDelta(1)

	env := &protocol.Envelope{ID: p.id, Payload: payload}
	if err := c.ch.Send(ctx, env); err != nil {
		c.remove(p.id)
		c.metrics.CorrelationOutcome("send_failed")
		return nil, err
	}
	c.metrics.MessageOut(string(payload.Kind()))

	if timeout > 0 {
		p.timer = time.AfterFunc(timeout, func() {
			c.expire(p.id)
		})
	}
	return p, nil
}

// Dispatch routes an inbound envelope to its pending entry. It reports true
// when the envelope was consumed; false means no entry matched (stale,
// already resolved, or foreign) and the caller may route it elsewhere.
func (c *Correlator) Dispatch(env *protocol.Envelope) bool {
	if env.ID == "" {
		return false
	}
	p := c.remove(env.ID)
	if p == nil {
		return false
	}
	if fault, ok := env.Payload.(protocol.Fault); ok {
		c.metrics.CorrelationOutcome("rejected")
		p.done <- outcome{err: &HostError{Message: fault.Fault()}}
		return true
	}
	c.metrics.CorrelationOutcome("resolved")
	p.done <- outcome{env: env}
	return true
}

// Close rejects every pending entry with ErrClosed and refuses new sends.
func (c *Correlator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	remaining := c.pending
	c.pending = make(map[string]*Pending)
	c.mu.Unlock()

	for _, p := range remaining {
		if p.timer != nil {
			p.timer.Stop()
		}
		c.metrics.PendingDelta(-1)
		p.done <- outcome{err: ErrClosed}
	}
}

// PendingCount reports the number of in-flight requests.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// expire atomically removes and rejects a timed-out entry. A response
// arriving after the timer fired finds no entry and cannot resurrect it.
func (c *Correlator) expire(id string) {
	p := c.remove(id)
	if p == nil {
		return
	}
	c.logger.Warn("request timed out", "id", id, "age", time.Since(p.createdAt))
	c.metrics.CorrelationOutcome("timeout")
	p.done <- outcome{err: ErrTimeout}
}

// abandon drops an entry without firing its outcome channel; used when the
// caller's context ended and nobody is awaiting anymore.
func (c *Correlator) abandon(id string) {
	if c.remove(id) != nil {
		c.metrics.CorrelationOutcome("abandoned")
	}
}

// remove deletes and returns the entry for id, stopping its timer. Returns
// nil when no entry exists.
func (c *Correlator) remove(id string) *Pending {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	c.metrics.PendingDelta(-1)
	return p
}
