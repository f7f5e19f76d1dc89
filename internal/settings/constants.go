package settings

// DB config keys and defaults for settings.
const (
	// IframeURLFieldKey toggles the iframe URL field on the settings form.
	IframeURLFieldKey = "ROADMAP_IFRAME_URL_FIELD"
	// ValidateBeforeSaveKey toggles the roadmap existence check before saving.
	ValidateBeforeSaveKey = "ROADMAP_VALIDATE_BEFORE_SAVE"
	// DefaultIframeURLField is the fallback for IframeURLFieldKey.
	DefaultIframeURLField = true
	// DefaultValidateBeforeSave is the fallback for ValidateBeforeSaveKey.
	DefaultValidateBeforeSave = true
)

// KnownKeys lists the keys the flags command accepts.
var KnownKeys = []string{IframeURLFieldKey, ValidateBeforeSaveKey}
