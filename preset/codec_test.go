package preset_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uixray/figma-llm-plugin-sub001/preset"
)

func TestExport_OmitsIDsAndTimestamps(t *testing.T) {
	p := preset.Preset{
		ID:         "p1",
		Name:       "People",
		Version:    2,
		FieldNames: []string{"name"},
		Groups: []preset.Group{
			{ID: "g1", Name: "row", Values: map[string]string{"name": "Ada"}},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	data, err := preset.Export(&p)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "People", doc["name"])
	_, hasID := doc["id"]
	assert.False(t, hasID)
	_, hasCreated := doc["createdAt"]
	assert.False(t, hasCreated)

	groups := doc["groups"].([]any)
	require.Len(t, groups, 1)
	_, hasGroupID := groups[0].(map[string]any)["id"]
	assert.False(t, hasGroupID)
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Customer Data", "customer_data.json"},
		{"  Déjà -- Vu!  ", "d_j_vu.json"},
		{"UPPER", "upper.json"},
		{"###", "preset.json"},
		{"a1 b2", "a1_b2.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, preset.ExportFilename(tt.name), "name %q", tt.name)
	}
}

func TestImport_Valid(t *testing.T) {
	doc := []byte(`{
		"name": "Imported",
		"fieldNames": ["name", "email"],
		"groups": [
			{"name": "row 1", "values": {"name": "Ada", "email": "ada@example.com", "ghost": "x"}}
		]
	}`)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	p, err := preset.Import(doc, now)
	require.NoError(t, err)
	assert.Equal(t, "Imported", p.Name)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, now, p.CreatedAt)
	require.Len(t, p.Groups, 1)
	assert.NotEmpty(t, p.Groups[0].ID)

	// Keys outside the schema are pruned on the way in.
	assert.Equal(t, map[string]string{"name": "Ada", "email": "ada@example.com"}, p.Groups[0].Values)
}

func TestImport_NeverReusesDocumentIDs(t *testing.T) {
	doc := []byte(`{
		"name": "Imported",
		"fieldNames": ["name"],
		"groups": [{"id": "old-group-id", "name": "row", "values": {"name": "x"}}],
		"id": "old-preset-id"
	}`)

	p, err := preset.Import(doc, time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, "old-preset-id", p.ID)
	assert.NotEqual(t, "old-group-id", p.Groups[0].ID)
}

func TestImport_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", `{"fieldNames":["a"],"groups":[]}`},
		{"empty name", `{"name":"  ","fieldNames":["a"],"groups":[]}`},
		{"missing fieldNames", `{"name":"x","groups":[]}`},
		{"missing groups", `{"name":"x","fieldNames":["a"]}`},
		{"not json", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := preset.Import([]byte(tt.doc), time.Now())
			var formatErr *preset.FormatError
			require.ErrorAs(t, err, &formatErr)
		})
	}
}

func TestImport_EmptyCollectionsAccepted(t *testing.T) {
	// Present-but-empty collections pass the format check; saving such a
	// preset later is what validation rejects.
	doc := []byte(`{"name":"x","fieldNames":[],"groups":[]}`)
	p, err := preset.Import(doc, time.Now())
	require.NoError(t, err)
	assert.Empty(t, p.FieldNames)
	assert.Empty(t, p.Groups)
}
