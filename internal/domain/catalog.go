package domain

// Provider identifies an upstream provider family.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGroq      Provider = "groq"
)

// Addon is an orthogonal response mode layered on top of model selection.
// When set, it takes routing precedence over the model.
type Addon string

const (
	AddonNone            Addon = ""
	AddonImageGeneration Addon = "image-generation"
	AddonSpeechSynthesis Addon = "speech-synthesis"
)

// ParseAddon maps a raw addon string onto the closed addon set. An empty
// string means no addon; anything outside the set is reported as unknown.
func ParseAddon(raw string) (Addon, bool) {
	switch Addon(raw) {
	case AddonNone, AddonImageGeneration, AddonSpeechSynthesis:
		return Addon(raw), true
	default:
		return AddonNone, false
	}
}

// Model describes one recognized model identifier: which provider family
// serves it and whether it accepts image input.
type Model struct {
	ID       string
	Provider Provider
	Vision   bool
}

// models is the closed catalog of recognized identifiers. Adding a provider
// or model means adding an entry here; unknown identifiers fail dispatch with
// an explicit validation error rather than being forwarded upstream.
var models = map[string]Model{
	"gpt-4o-mini":             {ID: "gpt-4o-mini", Provider: ProviderOpenAI},
	"gpt-4-vision-preview":    {ID: "gpt-4-vision-preview", Provider: ProviderOpenAI, Vision: true},
	"claude-3-sonnet":         {ID: "claude-3-sonnet", Provider: ProviderAnthropic},
	"claude-3-opus-20240229":  {ID: "claude-3-opus-20240229", Provider: ProviderAnthropic, Vision: true},
	"llama-3.1-70b-versatile": {ID: "llama-3.1-70b-versatile", Provider: ProviderGroq},
}

// LookupModel resolves a model identifier against the catalog.
func LookupModel(id string) (Model, bool) {
	m, ok := models[id]
	return m, ok
}
