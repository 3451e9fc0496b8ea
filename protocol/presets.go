package protocol

import "encoding/json"

// LoadDataPresets requests the persisted preset collection.
type LoadDataPresets struct{}

func (LoadDataPresets) Kind() Kind { return KindLoadDataPresets }

// DataPresetsLoaded carries the persisted preset collection. The collection
// is round-tripped verbatim as a single blob; the preset package owns its
// schema.
type DataPresetsLoaded struct {
	Collection json.RawMessage `json:"collection,omitempty"`
}

func (DataPresetsLoaded) Kind() Kind { return KindDataPresetsLoaded }

// SaveDataPresets persists the full preset collection on the host side.
type SaveDataPresets struct {
	Collection json.RawMessage `json:"collection"`
}

func (SaveDataPresets) Kind() Kind { return KindSaveDataPresets }

// ApplyDataSubstitution asks the host to substitute a preset's values into
// the current document selection.
type ApplyDataSubstitution struct {
	PresetID string `json:"presetId"`
}

func (ApplyDataSubstitution) Kind() Kind { return KindApplyDataSubstitution }

// SubstitutionShape distinguishes the two historical success payload shapes
// for substitution results.
type SubstitutionShape int

const (
	// ShapeComponents is the current shape: componentsProcessed + groupsUsed.
	ShapeComponents SubstitutionShape = iota
	// ShapeNodes is the legacy shape: nodesProcessed only.
	ShapeNodes
)

// SubstitutionResult is the decoded success payload of a substitution. Shape
// records which variant arrived; callers format their report accordingly.
type SubstitutionResult struct {
	Shape               SubstitutionShape
	ComponentsProcessed int
	GroupsUsed          int
	NodesProcessed      int
}

// SubstitutionApplied reports the outcome of an ApplyDataSubstitution
// request. Success payloads come in two shapes; decoding picks the variant by
// which fields are present, never by a version tag.
type SubstitutionApplied struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	result *SubstitutionResult
}

func (SubstitutionApplied) Kind() Kind { return KindSubstitutionApplied }

// Result returns the decoded success result, or nil for failures.
func (s *SubstitutionApplied) Result() *SubstitutionResult {
	if !s.Success {
		return nil
	}
	return s.result
}

// substitutionWire is the raw wire form covering both shapes.
type substitutionWire struct {
	Success             bool   `json:"success"`
	Error               string `json:"error,omitempty"`
	ComponentsProcessed *int   `json:"componentsProcessed,omitempty"`
	GroupsUsed          *int   `json:"groupsUsed,omitempty"`
	NodesProcessed      *int   `json:"nodesProcessed,omitempty"`
}

// UnmarshalJSON decodes either result shape. Presence of componentsProcessed
// selects the current shape; otherwise nodesProcessed selects the legacy one.
func (s *SubstitutionApplied) UnmarshalJSON(data []byte) error {
	var w substitutionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Success = w.Success
	s.Error = w.Error
	s.result = nil
	if !w.Success {
		return nil
	}
	switch {
	case w.ComponentsProcessed != nil:
		r := &SubstitutionResult{Shape: ShapeComponents, ComponentsProcessed: *w.ComponentsProcessed}
		if w.GroupsUsed != nil {
			r.GroupsUsed = *w.GroupsUsed
		}
		s.result = r
	case w.NodesProcessed != nil:
		s.result = &SubstitutionResult{Shape: ShapeNodes, NodesProcessed: *w.NodesProcessed}
	default:
		s.result = &SubstitutionResult{Shape: ShapeComponents}
	}
	return nil
}

// MarshalJSON re-encodes the result in the shape it was decoded with, so the
// payload survives a round trip unchanged.
func (s SubstitutionApplied) MarshalJSON() ([]byte, error) {
	w := substitutionWire{Success: s.Success, Error: s.Error}
	if s.result != nil {
		switch s.result.Shape {
		case ShapeComponents:
			w.ComponentsProcessed = &s.result.ComponentsProcessed
			w.GroupsUsed = &s.result.GroupsUsed
		case ShapeNodes:
			w.NodesProcessed = &s.result.NodesProcessed
		}
	}
	return json.Marshal(w)
}

// NewSubstitutionApplied builds a success payload in the given shape. Used by
// host fakes in tests and by the mock host command.
func NewSubstitutionApplied(r SubstitutionResult) *SubstitutionApplied {
	return &SubstitutionApplied{Success: true, result: &r}
}
