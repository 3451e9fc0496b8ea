package protocol

// Payload is the typed body of a channel message. Implementations are the
// closed set of message payloads; each reports the Kind it travels under.
type Payload interface {
	Kind() Kind
}

// Fault is implemented by payloads that represent an explicit host-reported
// failure. A correlated message whose payload is a fault rejects the pending
// request instead of resolving it.
type Fault interface {
	Payload
	Fault() string
}

// ProviderSettings is the persisted provider configuration, round-tripped
// with the execution host. The controller treats it as mostly opaque; only
// Provider participates in local validation.
type ProviderSettings struct {
	Provider       string  `json:"provider"`
	APIKey         string  `json:"apiKey,omitempty"`
	Endpoint       string  `json:"endpoint,omitempty"`
	Model          string  `json:"model,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	TargetLanguage string  `json:"targetLanguage,omitempty"`
}

// LoadSettings requests the persisted provider settings.
type LoadSettings struct{}

func (LoadSettings) Kind() Kind { return KindLoadSettings }

// SettingsLoaded carries the persisted provider settings back to the panel.
type SettingsLoaded struct {
	Settings ProviderSettings `json:"settings"`
}

func (SettingsLoaded) Kind() Kind { return KindSettingsLoaded }

// SaveSettings persists the provider settings on the host side.
type SaveSettings struct {
	Settings ProviderSettings `json:"settings"`
}

func (SaveSettings) Kind() Kind { return KindSaveSettings }

// GenerateText starts a streaming text generation on the host.
type GenerateText struct {
	Prompt      string  `json:"prompt"`
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

func (GenerateText) Kind() Kind { return KindGenerateText }

// CancelGeneration asks the host to stop the stream for a generation session.
type CancelGeneration struct {
	GenerationID string `json:"generationId,omitempty"`
}

func (CancelGeneration) Kind() Kind { return KindCancelGeneration }

// GenerationStarted announces the host-assigned id for a new generation.
type GenerationStarted struct {
	GenerationID string `json:"generationId"`
}

func (GenerationStarted) Kind() Kind { return KindGenerationStarted }

// GenerationChunk delivers one streamed text fragment. TokensGenerated is the
// cumulative count reported by the host, not a delta.
type GenerationChunk struct {
	GenerationID    string `json:"generationId"`
	Chunk           string `json:"chunk"`
	TokensGenerated int    `json:"tokensGenerated"`
}

func (GenerationChunk) Kind() Kind { return KindGenerationChunk }

// GenerationComplete terminates a generation with the host's authoritative
// final text and token count.
type GenerationComplete struct {
	GenerationID string  `json:"generationId"`
	FullText     string  `json:"fullText"`
	TokensUsed   int     `json:"tokensUsed"`
	DurationMS   int64   `json:"durationMs,omitempty"`
	Cost         float64 `json:"cost,omitempty"`
}

func (GenerationComplete) Kind() Kind { return KindGenerationComplete }

// GenerationError terminates a generation with a host-reported error.
type GenerationError struct {
	GenerationID string `json:"generationId"`
	Error        string `json:"error"`
}

func (GenerationError) Kind() Kind { return KindGenerationError }

// Fault marks generation errors as explicit host failures for correlation.
func (e GenerationError) Fault() string { return e.Error }

// Notification is a fire-and-forget user-facing message from the host.
type Notification struct {
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

func (Notification) Kind() Kind { return KindNotification }

// GetSelectedText asks the host for the current document selection's text.
// The host replies with a TextApplied payload carrying Text.
type GetSelectedText struct{}

func (GetSelectedText) Kind() Kind { return KindGetSelectedText }

// ApplyText writes text into the host document selection.
type ApplyText struct {
	Text string `json:"text"`
}

func (ApplyText) Kind() Kind { return KindApplyText }

// TextApplied answers both GetSelectedText (Text set) and ApplyText
// (NodesUpdated set).
type TextApplied struct {
	Text         string `json:"text,omitempty"`
	NodesUpdated int    `json:"nodesUpdated,omitempty"`
}

func (TextApplied) Kind() Kind { return KindTextApplied }

// TestConnection probes the configured provider endpoint.
type TestConnection struct{}

func (TestConnection) Kind() Kind { return KindTestConnection }

// TestConnectionResult reports the outcome of a connection probe.
type TestConnectionResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (TestConnectionResult) Kind() Kind { return KindTestConnectionResult }

// TestTranslation runs a sample translation through the provider.
type TestTranslation struct {
	Text string `json:"text,omitempty"`
}

func (TestTranslation) Kind() Kind { return KindTestTranslation }

// TestTranslationResult reports the outcome of a sample translation.
type TestTranslationResult struct {
	OK         bool   `json:"ok"`
	Translated string `json:"translated,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (TestTranslationResult) Kind() Kind { return KindTestTranslationResult }
