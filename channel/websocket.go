package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// Write and read tuning for the websocket transport.
const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
)

// WSConfig configures the websocket-backed channel.
type WSConfig struct {
	// URL is the host bridge endpoint, e.g. ws://127.0.0.1:8089/plugin.
	URL string
	// Logger is optional; nil uses slog.Default.
	Logger *slog.Logger
}

// WS is a Channel over a single websocket connection to the host bridge.
// Writes are serialized through an outbound queue; a read pump decodes
// inbound frames and hands them to the handler in arrival order.
type WS struct {
	conn   *websocket.Conn
	logger *slog.Logger

	outbound chan []byte
	done     chan struct{}

	mu      sync.RWMutex
	handler Handler
	closed  bool
}

// DialWS connects to the host bridge and starts the read and write pumps.
func DialWS(ctx context.Context, cfg WSConfig) (*WS, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	c := &WS{
		conn:     conn,
		logger:   logger.With("component", "channel.ws"),
		outbound: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c, nil
}

// Send queues one envelope for the write pump.
func (c *WS) Send(ctx context.Context, env *protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	select {
	case c.outbound <- data:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetHandler installs the inbound delivery callback.
func (c *WS) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Close stops the pumps and closes the connection.
func (c *WS) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *WS) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case data := <-c.outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("write failed, closing channel", "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *WS) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("read failed, closing channel", "error", err)
				_ = c.Close()
			}
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("dropping undecodable inbound message", "error", err)
			continue
		}
		c.mu.RLock()
		h := c.handler
		c.mu.RUnlock()
		if h == nil {
			c.logger.Warn("inbound message before handler installed", "kind", env.Kind())
			continue
		}
		h(env)
	}
}
