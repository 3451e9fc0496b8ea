// Package protocol defines the tagged message vocabulary exchanged between
// the plugin UI controller and the execution host. Every message on the wire
// is a flat JSON object carrying a "type" tag, an optional "id" correlation
// key, and the payload fields for that tag. The set of tags is closed: decoding
// an unknown tag fails rather than silently dropping the message.
package protocol

// Kind identifies a message type on the channel.
type Kind string

// Outbound kinds, consumed by the execution host.
const (
	KindLoadSettings          Kind = "load-settings"
	KindSaveSettings          Kind = "save-settings"
	KindGenerateText          Kind = "generate-text"
	KindCancelGeneration      Kind = "cancel-generation"
	KindGetSelectedText       Kind = "get-selected-text"
	KindApplyText             Kind = "apply-text"
	KindTestConnection        Kind = "test-connection"
	KindTestTranslation       Kind = "test-translation"
	KindLoadDataPresets       Kind = "load-data-presets"
	KindSaveDataPresets       Kind = "save-data-presets"
	KindApplyDataSubstitution Kind = "apply-data-substitution"
)

// Inbound kinds, produced by the execution host.
const (
	KindSettingsLoaded        Kind = "settings-loaded"
	KindGenerationStarted     Kind = "generation-started"
	KindGenerationChunk       Kind = "generation-chunk"
	KindGenerationComplete    Kind = "generation-complete"
	KindGenerationError       Kind = "generation-error"
	KindNotification          Kind = "notification"
	KindTextApplied           Kind = "text-applied"
	KindTestConnectionResult  Kind = "test-connection-result"
	KindTestTranslationResult Kind = "test-translation-result"
	KindDataPresetsLoaded     Kind = "data-presets-loaded"
	KindSubstitutionApplied   Kind = "substitution-applied"
)

// String returns the wire tag.
func (k Kind) String() string {
	return string(k)
}
