package controller

import (
	"context"
	"time"

	"github.com/uixray/figma-llm-plugin-sub001/channel"
	"github.com/uixray/figma-llm-plugin-sub001/correlate"
	"github.com/uixray/figma-llm-plugin-sub001/metric"
	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// roundTrip adapts the correlator and channel to the RoundTripper interface
// the preset and settings stores consume: correlated request/response plus a
// fire-and-forget post.
type roundTrip struct {
	corr    *correlate.Correlator
	ch      channel.Channel
	metrics *metric.Metrics
}

// Request sends payload with a fresh correlation id and blocks until the
// matching response, the timeout (zero disables it), or ctx ends.
func (rt *roundTrip) Request(ctx context.Context, payload protocol.Payload, timeout time.Duration) (*protocol.Envelope, error) {
	pending, err := rt.corr.Send(ctx, payload, timeout)
	if err != nil {
		return nil, err
	}
	return pending.Await(ctx)
}

// Post sends payload without a correlation id; nothing is awaited.
func (rt *roundTrip) Post(ctx context.Context, payload protocol.Payload) error {
	if err := rt.ch.Send(ctx, &protocol.Envelope{Payload: payload}); err != nil {
		return err
	}
	rt.metrics.MessageOut(string(payload.Kind()))
	return nil
}
