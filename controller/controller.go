// Package controller wires the plugin UI core together: one Controller owns
// the application state (settings mirror, preset collection, generation
// session slot), routes inbound channel messages, and exposes the user
// intents the panel invokes. There are no ambient singletons; every
// subcomponent receives its collaborators explicitly.
package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/uixray/figma-llm-plugin-sub001/channel"
	"github.com/uixray/figma-llm-plugin-sub001/correlate"
	"github.com/uixray/figma-llm-plugin-sub001/generation"
	"github.com/uixray/figma-llm-plugin-sub001/metric"
	"github.com/uixray/figma-llm-plugin-sub001/preset"
	"github.com/uixray/figma-llm-plugin-sub001/protocol"
	"github.com/uixray/figma-llm-plugin-sub001/settings"
)

// State is the application state owned by the Controller: the mirrors and
// the single generation slot. Subcomponents hold their own synchronization;
// the struct exists so nothing lives in package-level globals.
type State struct {
	Settings *settings.Store
	Presets  *preset.Store
	Session  *generation.Session
}

// Controller is the UI-side core of the plugin.
type Controller struct {
	ch       channel.Channel
	corr     *correlate.Correlator
	state    *State
	notifier Notifier
	confirm  Confirmer
	logger   *slog.Logger
	metrics  *metric.Metrics
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	notifier    Notifier
	confirm     Confirmer
	logger      *slog.Logger
	metrics     *metric.Metrics
	observer    generation.Observer
	loadTimeout time.Duration
}

// WithNotifier sets the presentation notification sink.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithConfirmer sets the destructive-action confirmation hook.
func WithConfirmer(c Confirmer) Option {
	return func(o *options) {
		o.confirm = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metric.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSessionObserver registers a callback for generation state changes.
func WithSessionObserver(fn generation.Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithSettingsLoadTimeout overrides the deadline on the initial settings
// load, the one round trip that carries a timeout.
func WithSettingsLoadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.loadTimeout = d
	}
}

// New builds a Controller over ch and installs its inbound handler.
func New(ch channel.Channel, opts ...Option) *Controller {
	o := &options{
		notifier:    nopNotifier{},
		logger:      slog.Default(),
		loadTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	corr := correlate.New(ch,
		correlate.WithLogger(o.logger),
		correlate.WithMetrics(o.metrics),
	)
	rt := &roundTrip{corr: corr, ch: ch, metrics: o.metrics}

	sessionOpts := []generation.Option{
		generation.WithLogger(o.logger),
		generation.WithMetrics(o.metrics),
	}
	if o.observer != nil {
		sessionOpts = append(sessionOpts, generation.WithObserver(o.observer))
	}

	c := &Controller{
		ch:   ch,
		corr: corr,
		state: &State{
			Settings: settings.NewStore(rt,
				settings.WithLogger(o.logger),
				settings.WithLoadTimeout(o.loadTimeout),
			),
			Presets:  preset.NewStore(rt, preset.WithLogger(o.logger)),
			Session:  generation.New(sessionOpts...),
		},
		notifier: o.notifier,
		confirm:  o.confirm,
		logger:   o.logger.With("component", "controller"),
		metrics:  o.metrics,
	}
	ch.SetHandler(c.Dispatch)
	return c
}

// State exposes the application state for the panel's read paths.
func (c *Controller) State() *State {
	return c.state
}

// Bootstrap performs the startup round trips: the settings load (the only
// deadline-bearing request) and the preset collection load.
func (c *Controller) Bootstrap(ctx context.Context) error {
	if err := c.state.Settings.Load(ctx); err != nil {
		return err
	}
	return c.state.Presets.Load(ctx)
}

// Close shuts the correlator down, rejecting everything still pending.
func (c *Controller) Close() {
	c.corr.Close()
}

// Dispatch routes one inbound envelope. Correlated responses are consumed by
// the pending table first; generation messages route by session id; the rest
// is either a host notification or a stale response, which is dropped
// without being an error.
func (c *Controller) Dispatch(env *protocol.Envelope) {
	c.metrics.MessageIn(string(env.Kind()))
	if env.ID != "" && c.corr.Dispatch(env) {
		return
	}
	switch p := env.Payload.(type) {
	case *protocol.GenerationStarted:
		c.state.Session.Attach(p.GenerationID)
	case *protocol.GenerationChunk:
		c.state.Session.ApplyChunk(p.GenerationID, p.Chunk, p.TokensGenerated)
	case *protocol.GenerationComplete:
		c.state.Session.Complete(p.GenerationID, p.FullText, p.TokensUsed, p.DurationMS, p.Cost)
	case *protocol.GenerationError:
		c.state.Session.Fail(p.GenerationID, p.Error)
		c.notifier.Notify(LevelError, p.Error)
	case *protocol.Notification:
		level := Level(p.Level)
		if level == "" {
			level = LevelInfo
		}
		c.notifier.Notify(level, p.Message)
	case *protocol.SettingsLoaded, *protocol.DataPresetsLoaded, *protocol.TextApplied,
		*protocol.TestConnectionResult, *protocol.TestTranslationResult, *protocol.SubstitutionApplied:
		// A response whose request already resolved or timed out. Stale,
		// not an error.
		c.logger.Debug("dropping stale response", "kind", env.Kind(), "id", env.ID)
	default:
		c.logger.Warn("unexpected inbound message", "kind", env.Kind())
	}
}
