package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// RoundTripper is the slice of the messaging layer the store needs: a
// correlated request/response pair and a fire-and-forget post.
type RoundTripper interface {
	Request(ctx context.Context, payload protocol.Payload, timeout time.Duration) (*protocol.Envelope, error)
	Post(ctx context.Context, payload protocol.Payload) error
}

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(prompt string) bool

// Store is the client-side mirror of the host-persisted preset collection.
// Every mutation pushes the full collection back to the host immediately;
// there is no debounce and no partial write.
type Store struct {
	rt     RoundTripper
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	coll Collection
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger.With("component", "preset.store")
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store backed by rt.
func NewStore(rt RoundTripper, opts ...StoreOption) *Store {
	s := &Store{
		rt:     rt,
		logger: slog.Default().With("component", "preset.store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load round-trips the persisted collection from the host and replaces the
// local mirror. An absent or empty blob yields an empty collection.
func (s *Store) Load(ctx context.Context) error {
	env, err := s.rt.Request(ctx, &protocol.LoadDataPresets{}, 0)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	loaded, ok := env.Payload.(*protocol.DataPresetsLoaded)
	if !ok {
		return fmt.Errorf("load presets: unexpected response %s", env.Kind())
	}
	var coll Collection
	if len(loaded.Collection) > 0 {
		if err := json.Unmarshal(loaded.Collection, &coll); err != nil {
			return fmt.Errorf("load presets: decode collection: %w", err)
		}
	}
	s.mu.Lock()
	s.coll = coll
	s.mu.Unlock()
	s.logger.Info("presets loaded", "count", len(coll.Presets))
	return nil
}

// Collection returns a deep copy of the mirror.
func (s *Store) Collection() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Collection{
		SelectedPresetID: s.coll.SelectedPresetID,
		LastUpdated:      s.coll.LastUpdated,
		Presets:          make([]Preset, len(s.coll.Presets)),
	}
	for i, p := range s.coll.Presets {
		out.Presets[i] = p.Clone()
	}
	return out
}

// Get returns a copy of the preset with the given id.
func (s *Store) Get(id string) (Preset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.coll.Presets {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return Preset{}, false
}

// SelectedID returns the current selection, empty for none.
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.SelectedPresetID
}

// Select updates the selection locally. Selection is ephemeral: it reaches
// the host only as part of the next persisted mutation, never on its own.
// Selecting an unknown id reports false and leaves the selection unchanged;
// an empty id clears it.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && !slices.ContainsFunc(s.coll.Presets, func(p Preset) bool { return p.ID == id }) {
		return false
	}
	s.coll.SelectedPresetID = id
	return true
}

// Save validates p and writes it into the collection: existing ids are
// overwritten in place, new presets are appended with a fresh id. Groups
// without an id are assigned one. The full collection is pushed to the host
// on success.
func (s *Store) Save(ctx context.Context, p Preset) (Preset, error) {
	if err := Validate(&p); err != nil {
		return Preset{}, err
	}
	now := s.now()

	s.mu.Lock()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		if p.Version == 0 {
			p.Version = 1
		}
	}
	p.UpdatedAt = now
	for i := range p.Groups {
		if p.Groups[i].ID == "" {
			p.Groups[i].ID = uuid.NewString()
		}
	}
	idx := slices.IndexFunc(s.coll.Presets, func(q Preset) bool { return q.ID == p.ID })
	if idx >= 0 {
		p.CreatedAt = s.coll.Presets[idx].CreatedAt
		p.Version = s.coll.Presets[idx].Version + 1
		s.coll.Presets[idx] = p.Clone()
	} else {
		s.coll.Presets = append(s.coll.Presets, p.Clone())
	}
	s.coll.LastUpdated = now
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return Preset{}, err
	}
	s.logger.Info("preset saved", "id", p.ID, "name", p.Name, "groups", len(p.Groups))
	return p, nil
}

// Delete removes a preset after interactive confirmation. Built-in presets
// are refused outright: no confirmation prompt, no host call. When the
// removed preset was selected, the selection is cleared before persisting.
func (s *Store) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.coll.Presets, func(p Preset) bool { return p.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	target := s.coll.Presets[idx]
	s.mu.Unlock()

	if target.IsBuiltin() {
		return ErrBuiltinProtected
	}
	if confirm == nil || !confirm(fmt.Sprintf("Delete preset %q?", target.Name)) {
		return ErrDeleteDeclined
	}

	s.mu.Lock()
	s.coll.Presets = slices.DeleteFunc(s.coll.Presets, func(p Preset) bool { return p.ID == id })
	if s.coll.SelectedPresetID == id {
		s.coll.SelectedPresetID = ""
	}
	s.coll.LastUpdated = s.now()
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return err
	}
	s.logger.Info("preset deleted", "id", id, "name", target.Name)
	return nil
}

// Adopt appends an imported preset, selects it, and persists. The preset is
// expected to carry fresh ids already (see Import).
func (s *Store) Adopt(ctx context.Context, p *Preset) error {
	s.mu.Lock()
	s.coll.Presets = append(s.coll.Presets, p.Clone())
	s.coll.SelectedPresetID = p.ID
	s.coll.LastUpdated = s.now()
	s.mu.Unlock()
	return s.persist(ctx)
}

// persist pushes the full collection to the host as one blob.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	blob, err := json.Marshal(s.coll)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode preset collection: %w", err)
	}
	if err := s.rt.Post(ctx, &protocol.SaveDataPresets{Collection: blob}); err != nil {
		return fmt.Errorf("persist presets: %w", err)
	}
	return nil
}
