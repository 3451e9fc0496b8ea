package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is one message on the channel: a typed payload plus the optional
// correlation id. The wire form is flat: payload fields sit next to "type"
// and "id" in a single JSON object.
type Envelope struct {
	ID      string
	Payload Payload
}

// Kind returns the payload's wire tag.
func (e *Envelope) Kind() Kind {
	return e.Payload.Kind()
}

// header is the portion of the wire form read before payload decoding.
type header struct {
	Type Kind   `json:"type"`
	ID   string `json:"id,omitempty"`
}

// payloadFactories enumerates every kind the controller understands. Decoding
// a kind outside this table is an error, not a silent drop.
var payloadFactories = map[Kind]func() Payload{
	KindLoadSettings:          func() Payload { return &LoadSettings{} },
	KindSaveSettings:          func() Payload { return &SaveSettings{} },
	KindGenerateText:          func() Payload { return &GenerateText{} },
	KindCancelGeneration:      func() Payload { return &CancelGeneration{} },
	KindGetSelectedText:       func() Payload { return &GetSelectedText{} },
	KindApplyText:             func() Payload { return &ApplyText{} },
	KindTestConnection:        func() Payload { return &TestConnection{} },
	KindTestTranslation:       func() Payload { return &TestTranslation{} },
	KindLoadDataPresets:       func() Payload { return &LoadDataPresets{} },
	KindSaveDataPresets:       func() Payload { return &SaveDataPresets{} },
	KindApplyDataSubstitution: func() Payload { return &ApplyDataSubstitution{} },

	KindSettingsLoaded:        func() Payload { return &SettingsLoaded{} },
	KindGenerationStarted:     func() Payload { return &GenerationStarted{} },
	KindGenerationChunk:       func() Payload { return &GenerationChunk{} },
	KindGenerationComplete:    func() Payload { return &GenerationComplete{} },
	KindGenerationError:       func() Payload { return &GenerationError{} },
	KindNotification:          func() Payload { return &Notification{} },
	KindTextApplied:           func() Payload { return &TextApplied{} },
	KindTestConnectionResult:  func() Payload { return &TestConnectionResult{} },
	KindTestTranslationResult: func() Payload { return &TestTranslationResult{} },
	KindDataPresetsLoaded:     func() Payload { return &DataPresetsLoaded{} },
	KindSubstitutionApplied:   func() Payload { return &SubstitutionApplied{} },
}

// UnknownKindError reports a wire tag outside the closed message set.
type UnknownKindError struct {
	Tag string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown message kind %q", e.Tag)
}

// Decode parses one wire message into an Envelope.
func Decode(data []byte) (*Envelope, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode message header: %w", err)
	}
	if h.Type == "" {
		return nil, fmt.Errorf("decode message: missing type tag")
	}
	factory, ok := payloadFactories[h.Type]
	if !ok {
		return nil, &UnknownKindError{Tag: string(h.Type)}
	}
	p := factory()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", h.Type, err)
	}
	return &Envelope{ID: h.ID, Payload: p}, nil
}

// Encode renders an Envelope to its flat wire form.
func Encode(e *Envelope) ([]byte, error) {
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Kind(), err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 2)
	}
	fields["type"], _ = json.Marshal(e.Kind())
	if e.ID != "" {
		fields["id"], _ = json.Marshal(e.ID)
	}
	return json.Marshal(fields)
}
