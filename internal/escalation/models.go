package escalation

import "time"

// ReasonNoAgents is persisted on the conversation when routing finds
// nobody, flagging it for manual triage. Not an error condition.
const ReasonNoAgents = "No agents available"

type RecordStatus string

const (
	RecordOpen     RecordStatus = "open"
	RecordResolved RecordStatus = "resolved"
)

// Record is one escalation event.
//
// Records are append-only history: everything except Status and
// ResolutionNotes is immutable after insert. A conversation can carry any
// number of them.
type Record struct {
	ID             string `json:"id" db:"id"`
	WorkspaceID    string `json:"workspace_id" db:"workspace_id"`
	ConversationID string `json:"conversation_id" db:"conversation_id"`

	AgentID string `json:"agent_id,omitempty" db:"agent_id"`

	EscalatedAt time.Time `json:"escalated_at" db:"escalated_at"`
	Reason      string    `json:"reason" db:"reason"`
	Priority    string    `json:"priority" db:"priority"`
	Department  string    `json:"department" db:"department"`

	Status          RecordStatus `json:"status" db:"status"`
	ResolutionNotes string       `json:"resolution_notes,omitempty" db:"resolution_notes"`
}
