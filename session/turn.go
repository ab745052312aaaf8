package session

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one recorded utterance. Turns are immutable once created and owned
// by the State that recorded them.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`

	// Query is the generated graph query attached to an assistant turn, kept
	// for audit. Empty when the turn needed no graph context.
	Query string `json:"query,omitempty"`

	// ResultSummary is the bounded summary of the query result the reply was
	// grounded on.
	ResultSummary string `json:"result_summary,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current time.
func NewTurn(role Role, text string) Turn {
	return Turn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}
