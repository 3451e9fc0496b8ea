package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

func TestEncode_FlatWireForm(t *testing.T) {
	env := &protocol.Envelope{
		ID: "req-1",
		Payload: &protocol.GenerationChunk{
			GenerationID:    "g1",
			Chunk:           "Hi",
			TokensGenerated: 1,
		},
	}
	data, err := protocol.Encode(env)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "generation-chunk", fields["type"])
	assert.Equal(t, "req-1", fields["id"])
	assert.Equal(t, "Hi", fields["chunk"])
	assert.Equal(t, "g1", fields["generationId"])
	assert.Equal(t, float64(1), fields["tokensGenerated"])
}

func TestEncode_OmitsEmptyID(t *testing.T) {
	data, err := protocol.Encode(&protocol.Envelope{Payload: &protocol.Notification{Message: "hello"}})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	_, hasID := fields["id"]
	assert.False(t, hasID)
}

func TestDecode_RoundTrip(t *testing.T) {
	in := &protocol.Envelope{
		ID:      "abc",
		Payload: &protocol.GenerateText{Prompt: "Hello", Provider: "openai", Temperature: 0.2},
	}
	data, err := protocol.Encode(in)
	require.NoError(t, err)

	out, err := protocol.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.ID)
	require.IsType(t, &protocol.GenerateText{}, out.Payload)
	got := out.Payload.(*protocol.GenerateText)
	assert.Equal(t, "Hello", got.Prompt)
	assert.Equal(t, "openai", got.Provider)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := protocol.Decode([]byte(`{"type":"resize-window","width":400}`))
	require.Error(t, err)
	var unknown *protocol.UnknownKindError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "resize-window", unknown.Tag)
}

func TestDecode_MissingType(t *testing.T) {
	_, err := protocol.Decode([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}

func TestSubstitutionApplied_CurrentShape(t *testing.T) {
	data := []byte(`{"type":"substitution-applied","id":"r1","success":true,"componentsProcessed":4,"groupsUsed":2}`)
	env, err := protocol.Decode(data)
	require.NoError(t, err)

	applied := env.Payload.(*protocol.SubstitutionApplied)
	require.True(t, applied.Success)
	result := applied.Result()
	require.NotNil(t, result)
	assert.Equal(t, protocol.ShapeComponents, result.Shape)
	assert.Equal(t, 4, result.ComponentsProcessed)
	assert.Equal(t, 2, result.GroupsUsed)
}

func TestSubstitutionApplied_LegacyShape(t *testing.T) {
	data := []byte(`{"type":"substitution-applied","id":"r1","success":true,"nodesProcessed":7}`)
	env, err := protocol.Decode(data)
	require.NoError(t, err)

	result := env.Payload.(*protocol.SubstitutionApplied).Result()
	require.NotNil(t, result)
	assert.Equal(t, protocol.ShapeNodes, result.Shape)
	assert.Equal(t, 7, result.NodesProcessed)
}

func TestSubstitutionApplied_Failure(t *testing.T) {
	data := []byte(`{"type":"substitution-applied","success":false,"error":"no text layers matched"}`)
	env, err := protocol.Decode(data)
	require.NoError(t, err)

	applied := env.Payload.(*protocol.SubstitutionApplied)
	assert.False(t, applied.Success)
	assert.Equal(t, "no text layers matched", applied.Error)
	assert.Nil(t, applied.Result())
}

func TestSubstitutionApplied_MarshalPreservesShape(t *testing.T) {
	in := protocol.NewSubstitutionApplied(protocol.SubstitutionResult{
		Shape:          protocol.ShapeNodes,
		NodesProcessed: 3,
	})
	data, err := protocol.Encode(&protocol.Envelope{ID: "r2", Payload: in})
	require.NoError(t, err)

	env, err := protocol.Decode(data)
	require.NoError(t, err)
	result := env.Payload.(*protocol.SubstitutionApplied).Result()
	require.NotNil(t, result)
	assert.Equal(t, protocol.ShapeNodes, result.Shape)
	assert.Equal(t, 3, result.NodesProcessed)
}

func TestGenerationError_IsFault(t *testing.T) {
	var p protocol.Payload = &protocol.GenerationError{Error: "rate limited"}
	fault, ok := p.(protocol.Fault)
	require.True(t, ok)
	assert.Equal(t, "rate limited", fault.Fault())
}
