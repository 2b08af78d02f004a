package core

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem marks instruction turns injected by the service.
	RoleSystem Role = "system"
	// RoleUser marks turns authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks turns generated by the model.
	RoleAssistant Role = "assistant"
)

// Turn is a single role-tagged message within a session's history.
// Insertion order is significant; the store never reorders turns.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// NewUserTurn creates a user-authored turn.
func NewUserTurn(text string) Turn { return Turn{Role: RoleUser, Text: text} }

// NewAssistantTurn creates a model-authored turn.
func NewAssistantTurn(text string) Turn { return Turn{Role: RoleAssistant, Text: text} }

// NewSystemTurn creates an instruction turn.
func NewSystemTurn(text string) Turn { return Turn{Role: RoleSystem, Text: text} }
