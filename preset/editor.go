package preset

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DefaultFieldName seeds the schema of a brand-new preset.
const DefaultFieldName = "value"

// EditSession is the working copy of a preset under edit. Mutations keep
// every working group consistent with the current field-name set; nothing
// touches the store until Apply's result is saved.
type EditSession struct {
	baseID      string
	baseVersion int

	Name                string
	FieldNames          []string
	DefaultValues       map[string]string
	MultiValueSeparator string
	Groups              []Group
}

// Edit opens an edit session over a deep copy of an existing preset.
func Edit(p *Preset) *EditSession {
	cp := p.Clone()
	return &EditSession{
		baseID:              cp.ID,
		baseVersion:         cp.Version,
		Name:                cp.Name,
		FieldNames:          cp.FieldNames,
		DefaultValues:       cp.DefaultValues,
		MultiValueSeparator: cp.MultiValueSeparator,
		Groups:              cp.Groups,
	}
}

// NewEdit opens an edit session for a brand-new preset with the default
// single-field schema and no groups.
func NewEdit() *EditSession {
	return &EditSession{
		FieldNames: []string{DefaultFieldName},
	}
}

// SetFieldNames replaces the working schema. Names are trimmed, empties
// dropped, and duplicates removed preserving first occurrence. Every working
// group is reconciled: new names gain empty-string entries, removed names
// are pruned, retained values stay untouched.
func (e *EditSession) SetFieldNames(names []string) {
	normalized := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	e.FieldNames = normalized
	for i := range e.Groups {
		e.Groups[i].Values = reconcileValues(e.Groups[i].Values, normalized)
	}
}

// reconcileValues restricts values to the given field names, adding empty
// entries for names the group does not have yet.
func reconcileValues(values map[string]string, fieldNames []string) map[string]string {
	out := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		out[name] = values[name]
	}
	return out
}

// AddGroup appends a new group pre-populated with an empty value for every
// current field name, and returns a pointer to it for further edits.
func (e *EditSession) AddGroup(name string) *Group {
	g := Group{
		ID:     uuid.NewString(),
		Name:   name,
		Values: reconcileValues(nil, e.FieldNames),
	}
	e.Groups = append(e.Groups, g)
	return &e.Groups[len(e.Groups)-1]
}

// RemoveGroup deletes the group with the given id. Unknown ids are a no-op.
func (e *EditSession) RemoveGroup(id string) {
	e.Groups = slices.DeleteFunc(e.Groups, func(g Group) bool {
		return g.ID == id
	})
}

// SetValue writes one field value on one group. Fields outside the current
// schema are ignored, keeping the subset invariant intact.
func (e *EditSession) SetValue(groupID, field, value string) {
	if !slices.Contains(e.FieldNames, field) {
		return
	}
	for i := range e.Groups {
		if e.Groups[i].ID == groupID {
			e.Groups[i].Values[field] = value
			return
		}
	}
}

// Apply materializes the working state as a Preset ready for Store.Save.
// Editing sessions carry the original id and version forward; new sessions
// leave them zero for Save to allocate.
func (e *EditSession) Apply() Preset {
	p := Preset{
		ID:                  e.baseID,
		Name:                e.Name,
		Version:             e.baseVersion,
		FieldNames:          slices.Clone(e.FieldNames),
		DefaultValues:       e.DefaultValues,
		MultiValueSeparator: e.MultiValueSeparator,
		Groups:              make([]Group, len(e.Groups)),
	}
	for i, g := range e.Groups {
		p.Groups[i] = g.Clone()
	}
	return p
}
