package domain

// Chat message roles accepted from the client. Anything else is rejected at
// the validation boundary before a provider is involved.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and the provider integrations. Provider-specific content blocks (vision
// image parts and the like) are built inside each integration from this plain
// form; the shared history is never mutated.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether role is one of the three recognized values.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}
