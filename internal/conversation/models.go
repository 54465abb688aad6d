package conversation

import (
	"time"

	"support-platform/internal/channel"
)

// Status is the conversation lifecycle state.
//
// new -> ai_processing -> agent_assigned -> resolved -> closed
//
// Escalation is not a state: it is the sticky RequiresHumanIntervention
// flag plus EscalationReason. A conversation can be escalated from any
// non-terminal state.
type Status string

const (
	StatusNew           Status = "new"
	StatusAIProcessing  Status = "ai_processing"
	StatusAgentAssigned Status = "agent_assigned"
	StatusResolved      Status = "resolved"
	StatusClosed        Status = "closed"
)

func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// ActiveStatuses are the non-terminal states counted toward agent workload.
func ActiveStatuses() []Status {
	return []Status{StatusNew, StatusAIProcessing, StatusAgentAssigned}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// AIMode controls automated handling per conversation.
// Auto is the default: AI handles it unless human intervention is flagged.
type AIMode string

const (
	AIModeOn   AIMode = "on"
	AIModeOff  AIMode = "off"
	AIModeAuto AIMode = "auto"
)

// SLAStatus is the live resolution-deadline verdict, recomputed on every
// save. Distinct from the retrospective compliance report.
type SLAStatus string

const (
	SLAInProgress SLAStatus = "in_progress"
	SLAFulfilled  SLAStatus = "fulfilled"
	SLAExceeded   SLAStatus = "exceeded"
)

// Conversation is a workspace-scoped customer-service thread.
//
// Invariants:
//   - ResolutionSLAExpiry is set exactly once at creation and never
//     recomputed, even if channel or priority later change.
//   - RequiresHumanIntervention is sticky: once set it is never cleared by
//     the state machine.
//   - Terminal conversations are archived, never deleted.
type Conversation struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	Channel channel.Channel `json:"channel" db:"channel"`

	// Pool is the routing pool (branch) this conversation is queued in.
	Pool string `json:"pool" db:"pool"`

	Subject  string   `json:"subject,omitempty" db:"subject"`
	Priority Priority `json:"priority" db:"priority"`
	Status   Status   `json:"status" db:"status"`
	AIMode   AIMode   `json:"ai_mode" db:"ai_mode"`

	AssignedAgentID string     `json:"assigned_agent_id,omitempty" db:"assigned_agent_id"`
	AgentAssignedAt *time.Time `json:"agent_assigned_at,omitempty" db:"agent_assigned_at"`

	EscalatedAt               *time.Time `json:"escalated_at,omitempty" db:"escalated_at"`
	EscalationReason          string     `json:"escalation_reason,omitempty" db:"escalation_reason"`
	RequiresHumanIntervention bool       `json:"requires_human_intervention" db:"requires_human_intervention"`

	// AIConfidenceScore is supplied by the NLP collaborator, 0..1.
	AIConfidenceScore *float64 `json:"ai_confidence_score,omitempty" db:"ai_confidence_score"`

	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	LastMessageAt   time.Time  `json:"last_message_at" db:"last_message_at"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty" db:"first_response_at"`

	ResolutionSLAExpiry time.Time `json:"resolution_sla_expiry" db:"resolution_sla_expiry"`
	SLAStatus           SLAStatus `json:"sla_status" db:"sla_status"`

	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	ResolutionNotes string     `json:"resolution_notes,omitempty" db:"resolution_notes"`

	Archived  bool      `json:"archived" db:"archived"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Message is one inbound or outbound message on a conversation.
// FromAI marks outbound messages produced by the automated responder; the
// compliance aggregator uses it to classify first responses.
type Message struct {
	ID             string `json:"id" db:"id"`
	WorkspaceID    string `json:"workspace_id" db:"workspace_id"`
	ConversationID string `json:"conversation_id" db:"conversation_id"`

	Direction Direction `json:"direction" db:"direction"`
	FromAI    bool      `json:"from_ai" db:"from_ai"`
	Body      string    `json:"body" db:"body"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
