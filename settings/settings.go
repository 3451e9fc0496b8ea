// Package settings mirrors the provider settings persisted by the execution
// host. The controller only inspects the provider field (generation refuses
// to start without one); everything else is carried opaquely for the panel.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// RoundTripper is the slice of the messaging layer the store needs.
type RoundTripper interface {
	Request(ctx context.Context, payload protocol.Payload, timeout time.Duration) (*protocol.Envelope, error)
	Post(ctx context.Context, payload protocol.Payload) error
}

// Store mirrors the host-persisted provider settings.
type Store struct {
	rt          RoundTripper
	logger      *slog.Logger
	loadTimeout time.Duration

	mu  sync.RWMutex
	cur protocol.ProviderSettings
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger.With("component", "settings")
	}
}

// WithLoadTimeout sets the deadline for the initial settings load. This is
// the only round trip in the controller that carries a timeout.
func WithLoadTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.loadTimeout = d
	}
}

// NewStore creates a settings store backed by rt.
func NewStore(rt RoundTripper, opts ...StoreOption) *Store {
	s := &Store{
		rt:          rt,
		logger:      slog.Default().With("component", "settings"),
		loadTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the mirrored settings.
func (s *Store) Current() protocol.ProviderSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// HasProvider reports whether a provider is configured.
func (s *Store) HasProvider() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Provider != ""
}

// Load round-trips the persisted settings, subject to the load timeout.
func (s *Store) Load(ctx context.Context) error {
	env, err := s.rt.Request(ctx, &protocol.LoadSettings{}, s.loadTimeout)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	loaded, ok := env.Payload.(*protocol.SettingsLoaded)
	if !ok {
		return fmt.Errorf("load settings: unexpected response %s", env.Kind())
	}
	s.mu.Lock()
	s.cur = loaded.Settings
	s.mu.Unlock()
	s.logger.Info("settings loaded", "provider", loaded.Settings.Provider)
	return nil
}

// Save updates the mirror and pushes the settings to the host.
func (s *Store) Save(ctx context.Context, cfg protocol.ProviderSettings) error {
	s.mu.Lock()
	s.cur = cfg
	s.mu.Unlock()
	if err := s.rt.Post(ctx, &protocol.SaveSettings{Settings: cfg}); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// TestConnection asks the host to probe the configured provider endpoint.
// The host's verdict comes back verbatim: ok, or its error text.
func (s *Store) TestConnection(ctx context.Context) (bool, string, error) {
	env, err := s.rt.Request(ctx, &protocol.TestConnection{}, 0)
	if err != nil {
		return false, "", fmt.Errorf("test connection: %w", err)
	}
	res, ok := env.Payload.(*protocol.TestConnectionResult)
	if !ok {
		return false, "", fmt.Errorf("test connection: unexpected response %s", env.Kind())
	}
	return res.OK, res.Error, nil
}

// TestTranslation runs a sample translation through the provider.
func (s *Store) TestTranslation(ctx context.Context, text string) (*protocol.TestTranslationResult, error) {
	env, err := s.rt.Request(ctx, &protocol.TestTranslation{Text: text}, 0)
	if err != nil {
		return nil, fmt.Errorf("test translation: %w", err)
	}
	res, ok := env.Payload.(*protocol.TestTranslationResult)
	if !ok {
		return nil, fmt.Errorf("test translation: unexpected response %s", env.Kind())
	}
	return res, nil
}
