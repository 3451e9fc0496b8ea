package correlate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uixray/figma-llm-plugin-sub001/channel"
	"github.com/uixray/figma-llm-plugin-sub001/correlate"
	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// fakeChannel records outbound envelopes and can be told to fail sends.
type fakeChannel struct {
	mu      sync.Mutex
	sent    []*protocol.Envelope
	sendErr error
}

func (f *fakeChannel) Send(_ context.Context, env *protocol.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeChannel) SetHandler(channel.Handler) {}
func (f *fakeChannel) Close() error               { return nil }

func (f *fakeChannel) lastSent() *protocol.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func TestCorrelator_ResolveOnce(t *testing.T) {
	ch := &fakeChannel{}
	c := correlate.New(ch)
	defer c.Close()

	pending, err := c.Send(context.Background(), &protocol.TestConnection{}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, c.PendingCount())

	sent := ch.lastSent()
	require.NotNil(t, sent)
	assert.Equal(t, pending.ID(), sent.ID)

	response := &protocol.Envelope{ID: pending.ID(), Payload: &protocol.TestConnectionResult{OK: true}}
	assert.True(t, c.Dispatch(response))
	assert.Equal(t, 0, c.PendingCount())

	env, err := pending.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, env.Payload.(*protocol.TestConnectionResult).OK)

	// A second message with the same id is inert.
	assert.False(t, c.Dispatch(response))
}

func TestCorrelator_StaleIDIgnored(t *testing.T) {
	c := correlate.New(&fakeChannel{})
	defer c.Close()

	stale := &protocol.Envelope{ID: "nobody-waits-for-this", Payload: &protocol.TestConnectionResult{}}
	assert.False(t, c.Dispatch(stale))
}

func TestCorrelator_NoIDNotConsumed(t *testing.T) {
	c := correlate.New(&fakeChannel{})
	defer c.Close()

	assert.False(t, c.Dispatch(&protocol.Envelope{Payload: &protocol.Notification{Message: "hi"}}))
}

func TestCorrelator_Timeout(t *testing.T) {
	c := correlate.New(&fakeChannel{})
	defer c.Close()

	pending, err := c.Send(context.Background(), &protocol.LoadSettings{}, 20*time.Millisecond)
	require.NoError(t, err)

	_, err = pending.Await(context.Background())
	require.ErrorIs(t, err, correlate.ErrTimeout)
	assert.Equal(t, 0, c.PendingCount())

	// A response arriving after the deadline cannot resurrect the entry.
	late := &protocol.Envelope{ID: pending.ID(), Payload: &protocol.SettingsLoaded{}}
	assert.False(t, c.Dispatch(late))
}

func TestCorrelator_ResponseBeatsTimeout(t *testing.T) {
	ch := &fakeChannel{}
	c := correlate.New(ch)
	defer c.Close()

	pending, err := c.Send(context.Background(), &protocol.LoadSettings{}, time.Hour)
	require.NoError(t, err)
	require.True(t, c.Dispatch(&protocol.Envelope{ID: pending.ID(), Payload: &protocol.SettingsLoaded{}}))

	env, err := pending.Await(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &protocol.SettingsLoaded{}, env.Payload)
}

func TestCorrelator_SendFailureRejectsImmediately(t *testing.T) {
	boom := errors.New("transport down")
	c := correlate.New(&fakeChannel{sendErr: boom})
	defer c.Close()

	_, err := c.Send(context.Background(), &protocol.TestConnection{}, time.Hour)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.PendingCount())
}

func TestCorrelator_FaultPayloadRejects(t *testing.T) {
	c := correlate.New(&fakeChannel{})
	defer c.Close()

	pending, err := c.Send(context.Background(), &protocol.GenerateText{Prompt: "hi"}, 0)
	require.NoError(t, err)

	fault := &protocol.Envelope{
		ID:      pending.ID(),
		Payload: &protocol.GenerationError{Error: "model unavailable"},
	}
	require.True(t, c.Dispatch(fault))

	_, err = pending.Await(context.Background())
	var hostErr *correlate.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "model unavailable", hostErr.Message)
}

func TestCorrelator_CloseRejectsPending(t *testing.T) {
	c := correlate.New(&fakeChannel{})

	pending, err := c.Send(context.Background(), &protocol.LoadSettings{}, 0)
	require.NoError(t, err)

	c.Close()
	_, err = pending.Await(context.Background())
	require.ErrorIs(t, err, correlate.ErrClosed)

	_, err = c.Send(context.Background(), &protocol.LoadSettings{}, 0)
	assert.ErrorIs(t, err, correlate.ErrClosed)
}

func TestCorrelator_IndependentRequests(t *testing.T) {
	ch := &fakeChannel{}
	c := correlate.New(ch)
	defer c.Close()

	first, err := c.Send(context.Background(), &protocol.TestConnection{}, 0)
	require.NoError(t, err)
	second, err := c.Send(context.Background(), &protocol.TestTranslation{Text: "hej"}, 0)
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), second.ID())

	// Resolve out of order.
	require.True(t, c.Dispatch(&protocol.Envelope{ID: second.ID(), Payload: &protocol.TestTranslationResult{OK: true}}))
	require.True(t, c.Dispatch(&protocol.Envelope{ID: first.ID(), Payload: &protocol.TestConnectionResult{OK: true}}))

	env, err := second.Await(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &protocol.TestTranslationResult{}, env.Payload)

	env, err = first.Await(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &protocol.TestConnectionResult{}, env.Payload)
}
