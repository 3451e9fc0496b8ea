package preset_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uixray/figma-llm-plugin-sub001/preset"
	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// fakeRoundTripper plays the host side of the store's round trips. It serves
// a canned collection on load and records every persisted blob.
type fakeRoundTripper struct {
	loadResponse json.RawMessage
	persisted    []preset.Collection
	requests     int
}

func (f *fakeRoundTripper) Request(_ context.Context, payload protocol.Payload, _ time.Duration) (*protocol.Envelope, error) {
	f.requests++
	switch payload.(type) {
	case *protocol.LoadDataPresets:
		return &protocol.Envelope{
			ID:      "r1",
			Payload: &protocol.DataPresetsLoaded{Collection: f.loadResponse},
		}, nil
	default:
		return &protocol.Envelope{ID: "r1", Payload: &protocol.Notification{}}, nil
	}
}

func (f *fakeRoundTripper) Post(_ context.Context, payload protocol.Payload) error {
	if save, ok := payload.(*protocol.SaveDataPresets); ok {
		var coll preset.Collection
		if err := json.Unmarshal(save.Collection, &coll); err != nil {
			return err
		}
		f.persisted = append(f.persisted, coll)
	}
	return nil
}

func (f *fakeRoundTripper) hostContacts() int {
	return f.requests + len(f.persisted)
}

func validPreset() preset.Preset {
	return preset.Preset{
		Name:       "People",
		FieldNames: []string{"name"},
		Groups: []preset.Group{
			{Name: "row", Values: map[string]string{"name": "Ada"}},
		},
	}
}

func TestStore_LoadPopulatesMirror(t *testing.T) {
	blob, err := json.Marshal(preset.Collection{
		Presets:          []preset.Preset{{ID: "p1", Name: "One"}},
		SelectedPresetID: "p1",
	})
	require.NoError(t, err)
	rt := &fakeRoundTripper{loadResponse: blob}
	s := preset.NewStore(rt)

	require.NoError(t, s.Load(context.Background()))
	coll := s.Collection()
	require.Len(t, coll.Presets, 1)
	assert.Equal(t, "p1", coll.SelectedPresetID)
}

func TestStore_LoadEmptyBlob(t *testing.T) {
	s := preset.NewStore(&fakeRoundTripper{})
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Collection().Presets)
}

func TestStore_SaveValidationFailuresDoNotContactHost(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*preset.Preset)
	}{
		{"empty name", func(p *preset.Preset) { p.Name = "  " }},
		{"no field names", func(p *preset.Preset) { p.FieldNames = nil }},
		{"no groups", func(p *preset.Preset) { p.Groups = nil }},
		{"unnamed group", func(p *preset.Preset) { p.Groups[0].Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &fakeRoundTripper{}
			s := preset.NewStore(rt)
			p := validPreset()
			tt.mutate(&p)

			_, err := s.Save(context.Background(), p)
			var verr *preset.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Zero(t, rt.hostContacts())
		})
	}
}

func TestStore_SaveNewAllocatesIDsAndPersists(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := preset.NewStore(rt)

	saved, err := s.Save(context.Background(), validPreset())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.NotEmpty(t, saved.Groups[0].ID)
	assert.Equal(t, 1, saved.Version)
	assert.False(t, saved.UpdatedAt.IsZero())

	require.Len(t, rt.persisted, 1)
	require.Len(t, rt.persisted[0].Presets, 1)
	assert.Equal(t, saved.ID, rt.persisted[0].Presets[0].ID)
	assert.False(t, rt.persisted[0].LastUpdated.IsZero())
}

func TestStore_SaveExistingOverwritesAndBumpsVersion(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := preset.NewStore(rt)

	saved, err := s.Save(context.Background(), validPreset())
	require.NoError(t, err)

	saved.Name = "Renamed"
	again, err := s.Save(context.Background(), saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	assert.Equal(t, 2, again.Version)
	assert.Equal(t, saved.CreatedAt, again.CreatedAt)

	coll := s.Collection()
	require.Len(t, coll.Presets, 1)
	assert.Equal(t, "Renamed", coll.Presets[0].Name)
}

func TestStore_SelectPersistsOnlyAlongsideSave(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := preset.NewStore(rt)

	saved, err := s.Save(context.Background(), validPreset())
	require.NoError(t, err)
	persistsBefore := len(rt.persisted)

	require.True(t, s.Select(saved.ID))
	assert.Equal(t, persistsBefore, len(rt.persisted), "selection alone must not persist")

	_, err = s.Save(context.Background(), saved)
	require.NoError(t, err)
	last := rt.persisted[len(rt.persisted)-1]
	assert.Equal(t, saved.ID, last.SelectedPresetID, "selection rides along with the next save")
}

func TestStore_SelectUnknownIDRefused(t *testing.T) {
	s := preset.NewStore(&fakeRoundTripper{})
	assert.False(t, s.Select("ghost"))
	assert.Empty(t, s.SelectedID())
}

func TestStore_DeleteBuiltinRefusedWithoutConfirmOrHost(t *testing.T) {
	blob, err := json.Marshal(preset.Collection{
		Presets: []preset.Preset{{ID: preset.BuiltinPrefix + "sample", Name: "Sample"}},
	})
	require.NoError(t, err)
	rt := &fakeRoundTripper{loadResponse: blob}
	s := preset.NewStore(rt)
	require.NoError(t, s.Load(context.Background()))
	contactsAfterLoad := rt.hostContacts()

	confirmCalled := false
	err = s.Delete(context.Background(), preset.BuiltinPrefix+"sample", func(string) bool {
		confirmCalled = true
		return true
	})
	require.ErrorIs(t, err, preset.ErrBuiltinProtected)
	assert.False(t, confirmCalled, "built-in deletion must not prompt")
	assert.Equal(t, contactsAfterLoad, rt.hostContacts())
	assert.Len(t, s.Collection().Presets, 1)
}

func TestStore_DeleteDeclinedLeavesCollection(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := preset.NewStore(rt)
	saved, err := s.Save(context.Background(), validPreset())
	require.NoError(t, err)
	persistsBefore := len(rt.persisted)

	err = s.Delete(context.Background(), saved.ID, func(string) bool { return false })
	require.ErrorIs(t, err, preset.ErrDeleteDeclined)
	assert.Len(t, s.Collection().Presets, 1)
	assert.Equal(t, persistsBefore, len(rt.persisted))
}

func TestStore_DeleteConfirmedClearsSelectionAndPersists(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := preset.NewStore(rt)
	saved, err := s.Save(context.Background(), validPreset())
	require.NoError(t, err)
	require.True(t, s.Select(saved.ID))
	persistsBefore := len(rt.persisted)

	var prompt string
	err = s.Delete(context.Background(), saved.ID, func(p string) bool {
		prompt = p
		return true
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "People")
	assert.Empty(t, s.Collection().Presets)
	assert.Empty(t, s.SelectedID())
	require.Len(t, rt.persisted, persistsBefore+1)
	assert.Empty(t, rt.persisted[len(rt.persisted)-1].SelectedPresetID)
}

func TestStore_DeleteUnknownID(t *testing.T) {
	s := preset.NewStore(&fakeRoundTripper{})
	err := s.Delete(context.Background(), "ghost", func(string) bool { return true })
	assert.ErrorIs(t, err, preset.ErrNotFound)
}

func TestStore_AdoptSelectsAndPersists(t *testing.T) {
	rt := &fakeRoundTripper{}
	s := preset.NewStore(rt)

	p, err := preset.Import([]byte(`{"name":"In","fieldNames":["a"],"groups":[{"name":"g","values":{"a":"1"}}]}`), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Adopt(context.Background(), p))

	assert.Equal(t, p.ID, s.SelectedID())
	require.Len(t, rt.persisted, 1)
	assert.Equal(t, p.ID, rt.persisted[0].SelectedPresetID)
}
