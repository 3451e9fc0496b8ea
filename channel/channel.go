// Package channel provides the bidirectional message transport between the
// plugin UI controller and the execution host. A channel delivers tagged
// envelopes in order, asynchronously, with no built-in request/response
// pairing and no delivery guarantee; pairing is layered on top by the
// correlate package.
package channel

import (
	"context"
	"errors"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// Common channel errors.
var (
	// ErrClosed is returned by Send after the channel has been closed.
	ErrClosed = errors.New("channel closed")
	// ErrNoHandler indicates an inbound message arrived before SetHandler.
	ErrNoHandler = errors.New("no inbound handler set")
)

// Handler receives inbound envelopes, one at a time, in delivery order.
type Handler func(*protocol.Envelope)

// Channel is an opaque transport to the execution host.
type Channel interface {
	// Send dispatches one envelope toward the host. A send failure is
	// reported immediately; there is no retransmission.
	Send(ctx context.Context, env *protocol.Envelope) error

	// SetHandler installs the inbound delivery callback. Must be called
	// before the first inbound message; later calls replace the handler.
	SetHandler(h Handler)

	// Close tears the transport down. Subsequent Sends return ErrClosed.
	Close() error
}
