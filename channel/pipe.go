package channel

import (
	"context"
	"sync"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// Pipe is an in-memory Channel whose Send delivers synchronously to the peer
// end's handler, preserving order. It exists for tests and for the embedded
// mock host: each envelope is re-encoded and decoded so the wire codec is
// exercised on every hop.
type Pipe struct {
	mu      sync.Mutex
	peer    *Pipe
	handler Handler
	closed  bool
}

// NewPipe returns two connected channel ends. Envelopes sent on one end are
// delivered to the handler installed on the other.
func NewPipe() (*Pipe, *Pipe) {
	a := &Pipe{}
	b := &Pipe{}
	a.peer = b
	b.peer = a
	return a, b
}

// Send encodes the envelope and delivers it to the peer's handler.
func (p *Pipe) Send(ctx context.Context, env *protocol.Envelope) error {
	p.mu.Lock()
	closed := p.closed
	peer := p.peer
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	decoded, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	peer.mu.Lock()
	h := peer.handler
	peerClosed := peer.closed
	peer.mu.Unlock()
	if peerClosed {
		return ErrClosed
	}
	if h == nil {
		return ErrNoHandler
	}
	h(decoded)
	return nil
}

// SetHandler installs the inbound delivery callback.
func (p *Pipe) SetHandler(h Handler) {
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()
}

// Close marks this end closed; both ends then refuse Sends.
func (p *Pipe) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
