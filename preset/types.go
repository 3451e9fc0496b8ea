// Package preset implements the data-preset model: named collections of
// value groups under a per-preset field schema, used to substitute values
// into the host document. It covers the persisted collection mirror, the
// schema-driven group editor, and the import/export codec.
package preset

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// BuiltinPrefix marks preset ids that ship with the plugin. Built-in presets
// can be edited but never deleted.
const BuiltinPrefix = "builtin-"

// Group is one named row of field values within a preset. Values keys are
// always a subset of the owning preset's field names.
type Group struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Values map[string]string `json:"values"`
}

// Clone returns a deep copy.
func (g Group) Clone() Group {
	out := g
	out.Values = make(map[string]string, len(g.Values))
	maps.Copy(out.Values, g.Values)
	return out
}

// Preset is a named field schema plus its ordered value groups.
type Preset struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Version             int               `json:"version"`
	FieldNames          []string          `json:"fieldNames"`
	DefaultValues       map[string]string `json:"defaultValues,omitempty"`
	MultiValueSeparator string            `json:"multiValueSeparator,omitempty"`
	Groups              []Group           `json:"groups"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// IsBuiltin reports whether the preset ships with the plugin.
func (p *Preset) IsBuiltin() bool {
	return strings.HasPrefix(p.ID, BuiltinPrefix)
}

// Clone returns a deep copy.
func (p Preset) Clone() Preset {
	out := p
	out.FieldNames = slices.Clone(p.FieldNames)
	if p.DefaultValues != nil {
		out.DefaultValues = make(map[string]string, len(p.DefaultValues))
		maps.Copy(out.DefaultValues, p.DefaultValues)
	}
	out.Groups = make([]Group, len(p.Groups))
	for i, g := range p.Groups {
		out.Groups[i] = g.Clone()
	}
	return out
}

// Collection is the unit of persistence round-tripped with the execution
// host: every preset plus the current selection.
type Collection struct {
	Presets          []Preset  `json:"presets"`
	SelectedPresetID string    `json:"selectedPresetId,omitempty"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// Validate checks the preconditions for saving a preset: non-empty name, at
// least one field name, at least one group, and a non-empty name on every
// group.
func Validate(p *Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Reason: "preset name must not be empty"}
	}
	if len(p.FieldNames) == 0 {
		return &ValidationError{Reason: "preset needs at least one field name"}
	}
	for _, name := range p.FieldNames {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Reason: "field names must not be empty"}
		}
	}
	if len(p.Groups) == 0 {
		return &ValidationError{Reason: "preset needs at least one group"}
	}
	for _, g := range p.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return &ValidationError{Reason: "every group needs a name"}
		}
	}
	return nil
}
