package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// NATSConfig configures the NATS-backed channel.
type NATSConfig struct {
	// URL is the NATS server URL.
	URL string
	// SubjectOut is the subject outbound envelopes are published to.
	SubjectOut string
	// SubjectIn is the subject inbound envelopes arrive on.
	SubjectIn string
	// Logger is optional; nil uses slog.Default.
	Logger *slog.Logger
}

// NATS is a Channel over a core NATS pub/sub pair. Publishes are
// fire-and-forget, matching the unreliable-transport contract.
type NATS struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	logger  *slog.Logger

	mu      sync.RWMutex
	handler Handler
	closed  atomic.Bool
}

// DialNATS connects to the server and subscribes to the inbound subject.
func DialNATS(cfg NATSConfig) (*NATS, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("plugin-ui-channel"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	c := &NATS{
		conn:    conn,
		subject: cfg.SubjectOut,
		logger:  logger.With("component", "channel.nats"),
	}
	sub, err := conn.Subscribe(cfg.SubjectIn, c.onMessage)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", cfg.SubjectIn, err)
	}
	c.sub = sub
	return c, nil
}

func (c *NATS) onMessage(msg *nats.Msg) {
	env, err := protocol.Decode(msg.Data)
	if err != nil {
		c.logger.Warn("dropping undecodable inbound message", "error", err)
		return
	}
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		c.logger.Warn("inbound message before handler installed", "kind", env.Kind())
		return
	}
	h(env)
}

// Send publishes one envelope to the outbound subject.
func (c *NATS) Send(ctx context.Context, env *protocol.Envelope) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	if err := c.conn.Publish(c.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", env.Kind(), err)
	}
	return nil
}

// SetHandler installs the inbound delivery callback.
func (c *NATS) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Close drains the subscription and closes the connection.
func (c *NATS) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.sub.Unsubscribe(); err != nil {
		c.conn.Close()
		return fmt.Errorf("unsubscribe: %w", err)
	}
	c.conn.Close()
	return nil
}
