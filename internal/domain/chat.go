package domain

import "strings"

// Role is the speaker of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a caller-supplied role case-insensitively. The boolean is
// false for anything outside system, user and assistant.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSystem:
		return RoleSystem, true
	case RoleUser:
		return RoleUser, true
	case RoleAssistant:
		return RoleAssistant, true
	default:
		return "", false
	}
}

// Label returns the capitalized role name used in flattened transcripts.
func (r Role) Label() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleAssistant:
		return "Assistant"
	default:
		return "User"
	}
}

// ChatTurn is the provider-agnostic chat message shape used by the handler
// and LLM integrations.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryEntry is a raw, caller-supplied history item. Text and Content are
// the two accepted field names for the message body.
type HistoryEntry struct {
	Role    string
	Text    string
	Content string
}

// Transcript flattens the instruction and turns into "Role: text" lines,
// the instruction first.
func Transcript(instruction string, turns []ChatTurn) string {
	lines := make([]string, 0, len(turns)+1)
	if s := strings.TrimSpace(instruction); s != "" {
		lines = append(lines, RoleSystem.Label()+": "+s)
	}
	for _, t := range turns {
		lines = append(lines, t.Role.Label()+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
