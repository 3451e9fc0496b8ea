package preset

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is the portable export form of a single preset. Ids and
// timestamps are deliberately absent: an import always mints fresh ones so
// an imported preset can never collide with existing local entities.
type Document struct {
	Name                string            `json:"name"`
	Version             int               `json:"version,omitempty"`
	FieldNames          []string          `json:"fieldNames"`
	DefaultValues       map[string]string `json:"defaultValues,omitempty"`
	MultiValueSeparator string            `json:"multiValueSeparator,omitempty"`
	Groups              []DocumentGroup   `json:"groups"`
}

// DocumentGroup is the export form of one group.
type DocumentGroup struct {
	Name   string            `json:"name"`
	Values map[string]string `json:"values,omitempty"`
}

// Export serializes one preset to its portable document form.
func Export(p *Preset) ([]byte, error) {
	doc := Document{
		Name:                p.Name,
		Version:             p.Version,
		FieldNames:          p.FieldNames,
		DefaultValues:       p.DefaultValues,
		MultiValueSeparator: p.MultiValueSeparator,
		Groups:              make([]DocumentGroup, len(p.Groups)),
	}
	for i, g := range p.Groups {
		doc.Groups[i] = DocumentGroup{Name: g.Name, Values: g.Values}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export preset %s: %w", p.Name, err)
	}
	return data, nil
}

// ExportFilename derives the download filename from the preset name: lowered,
// with every run of non-alphanumeric characters collapsed to a single
// underscore.
func ExportFilename(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	token := b.String()
	if token == "" {
		token = "preset"
	}
	return token + ".json"
}

// Import parses a portable document into a preset ready to adopt into the
// collection. The document must carry a non-empty name and both the
// fieldNames and groups collections; anything else is a FormatError and the
// caller's collection stays untouched. The returned preset and all of its
// groups carry fresh ids and timestamps regardless of what the document
// contained.
func Import(data []byte, now time.Time) (*Preset, error) {
	var raw struct {
		Name                *string           `json:"name"`
		Version             int               `json:"version"`
		FieldNames          []string          `json:"fieldNames"`
		DefaultValues       map[string]string `json:"defaultValues"`
		MultiValueSeparator string            `json:"multiValueSeparator"`
		Groups              []DocumentGroup   `json:"groups"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}
	if raw.Name == nil || strings.TrimSpace(*raw.Name) == "" {
		return nil, &FormatError{Reason: "missing preset name"}
	}
	if raw.FieldNames == nil {
		return nil, &FormatError{Reason: "missing fieldNames"}
	}
	if raw.Groups == nil {
		return nil, &FormatError{Reason: "missing groups"}
	}

	p := &Preset{
		ID:                  uuid.NewString(),
		Name:                *raw.Name,
		Version:             raw.Version,
		FieldNames:          raw.FieldNames,
		DefaultValues:       raw.DefaultValues,
		MultiValueSeparator: raw.MultiValueSeparator,
		Groups:              make([]Group, len(raw.Groups)),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for i, g := range raw.Groups {
		p.Groups[i] = Group{
			ID:     uuid.NewString(),
			Name:   g.Name,
			Values: reconcileValues(g.Values, p.FieldNames),
		}
	}
	return p, nil
}
