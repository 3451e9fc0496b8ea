package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
	"github.com/uixray/figma-llm-plugin-sub001/settings"
)

// fakeRoundTripper records the timeout each request carried.
type fakeRoundTripper struct {
	timeouts []time.Duration
	posted   []protocol.Payload
}

func (f *fakeRoundTripper) Request(_ context.Context, payload protocol.Payload, timeout time.Duration) (*protocol.Envelope, error) {
	f.timeouts = append(f.timeouts, timeout)
	switch payload.(type) {
	case *protocol.LoadSettings:
		return &protocol.Envelope{ID: "r", Payload: &protocol.SettingsLoaded{
			Settings: protocol.ProviderSettings{Provider: "anthropic", Model: "claude-test"},
		}}, nil
	case *protocol.TestConnection:
		return &protocol.Envelope{ID: "r", Payload: &protocol.TestConnectionResult{OK: false, Error: "401"}}, nil
	case *protocol.TestTranslation:
		return &protocol.Envelope{ID: "r", Payload: &protocol.TestTranslationResult{OK: true, Translated: "hej"}}, nil
	}
	return &protocol.Envelope{ID: "r", Payload: &protocol.Notification{}}, nil
}

func (f *fakeRoundTripper) Post(_ context.Context, payload protocol.Payload) error {
	f.posted = append(f.posted, payload)
	return nil
}

func TestStore_LoadCarriesTimeout(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := settings.NewStore(rt, settings.WithLoadTimeout(2*time.Second))

	require.NoError(t, s.Load(context.Background()))
	require.Len(t, rt.timeouts, 1)
	assert.Equal(t, 2*time.Second, rt.timeouts[0])

	cur := s.Current()
	assert.Equal(t, "anthropic", cur.Provider)
	assert.True(t, s.HasProvider())
}

func TestStore_OtherRoundTripsHaveNoTimeout(t *testing.T) {
	// Only the settings load carries a deadline; the probes wait
	// indefinitely.
	rt := &fakeRoundTripper{}
	s := settings.NewStore(rt)

	ok, errText, err := s.TestConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "401", errText)

	res, err := s.TestTranslation(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "hej", res.Translated)

	require.Len(t, rt.timeouts, 2)
	assert.Equal(t, time.Duration(0), rt.timeouts[0])
	assert.Equal(t, time.Duration(0), rt.timeouts[1])
}

func TestStore_SavePushesAndMirrors(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := settings.NewStore(rt)

	cfg := protocol.ProviderSettings{Provider: "ollama", Endpoint: "http://localhost:11434"}
	require.NoError(t, s.Save(context.Background(), cfg))

	assert.Equal(t, cfg, s.Current())
	require.Len(t, rt.posted, 1)
	saved := rt.posted[0].(*protocol.SaveSettings)
	assert.Equal(t, "ollama", saved.Settings.Provider)
}
