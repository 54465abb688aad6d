package escalation

import (
	"context"
	"log/slog"
	"time"

	"support-platform/internal/conversation"
	"support-platform/internal/dispatch"
	"support-platform/internal/routing"

	"github.com/google/uuid"
)

// Orchestrator runs the escalation flow: pick (or keep) an agent, stamp
// the conversation, append a record, and fire the agent notification.
//
// It mutates the conversation in place; the state machine persists it as
// part of the same save. Everything here is best-effort: collaborator
// failures are logged and swallowed so escalation never aborts a save.
type Orchestrator struct {
	Records    Repository
	Router     *routing.Engine
	Dispatcher dispatch.Dispatcher
	Classify   DepartmentClassifier
	Log        *slog.Logger

	clock func() time.Time
}

func NewOrchestrator(records Repository, router *routing.Engine, dispatcher dispatch.Dispatcher, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		Records:    records,
		Router:     router,
		Dispatcher: dispatcher,
		Classify:   ClassifyByKeywords,
		Log:        log,
		clock:      time.Now,
	}
}

// Escalate implements conversation.Escalator.
//
// Supervising-agent model: an already-assigned conversation keeps its
// agent rather than re-routing; the existing agent supervises from here on.
func (o *Orchestrator) Escalate(ctx context.Context, c *conversation.Conversation, reason string) (conversation.EscalationOutcome, error) {
	now := o.clock().UTC()

	agentID := c.AssignedAgentID
	if agentID == "" {
		if o.Router == nil {
			return conversation.EscalationOutcome{}, nil
		}
		agent, ok, err := o.Router.FindAvailableAgent(ctx, c.WorkspaceID, c.Pool, c.Channel)
		if err != nil {
			// Routing collaborator failure: treat like exhaustion, for
			// manual triage, rather than failing the save.
			o.Log.Error("routing failed during escalation", "conversation_id", c.ID, "err", err)
			ok = false
		}
		if !ok {
			c.Status = conversation.StatusNew
			c.EscalationReason = ReasonNoAgents
			return conversation.EscalationOutcome{}, nil
		}
		agentID = agent.ID
		c.AssignedAgentID = agentID
		c.AgentAssignedAt = &now
	}

	c.Status = conversation.StatusAgentAssigned
	c.EscalatedAt = &now
	// Sticky: never reverts to automated handling on its own.
	c.RequiresHumanIntervention = true
	if reason != "" {
		c.EscalationReason = reason
	}

	o.appendRecord(ctx, *c, agentID, reason, now)
	o.notifyAgent(ctx, *c, agentID)

	return conversation.EscalationOutcome{Assigned: true, AgentID: agentID}, nil
}

// ResolveLatest implements conversation.EscalationResolver: it closes out
// only the most recent record. Older records stay as history.
func (o *Orchestrator) ResolveLatest(ctx context.Context, workspaceID, conversationID, notes string) error {
	if o.Records == nil {
		return nil
	}
	recs, err := o.Records.ListByConversation(ctx, workspaceID, conversationID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	latest := recs[len(recs)-1]
	return o.Records.UpdateStatus(ctx, workspaceID, latest.ID, RecordResolved, notes)
}

func (o *Orchestrator) appendRecord(ctx context.Context, c conversation.Conversation, agentID, reason string, now time.Time) {
	if o.Records == nil {
		return
	}
	department := DepartmentGeneral
	if o.Classify != nil {
		department = o.Classify(c, reason)
	}
	rec := Record{
		ID:             uuid.NewString(),
		WorkspaceID:    c.WorkspaceID,
		ConversationID: c.ID,
		AgentID:        agentID,
		EscalatedAt:    now,
		Reason:         reason,
		Priority:       string(c.Priority),
		Department:     department,
		Status:         RecordOpen,
	}
	if err := o.Records.Append(ctx, rec); err != nil {
		o.Log.Error("escalation record append failed", "conversation_id", c.ID, "err", err)
	}
}

func (o *Orchestrator) notifyAgent(ctx context.Context, c conversation.Conversation, agentID string) {
	if o.Dispatcher == nil {
		return
	}
	task := dispatch.Task{
		Type:           dispatch.TaskTypeNotifyAgent,
		WorkspaceID:    c.WorkspaceID,
		ConversationID: c.ID,
		AgentID:        agentID,
		Subject:        "Conversation assigned to you",
		Body:           "Conversation " + c.ID + " was escalated: " + c.EscalationReason,
	}
	// Best-effort, fire-and-forget.
	if err := o.Dispatcher.Enqueue(ctx, task); err != nil {
		o.Log.Error("agent notification enqueue failed", "conversation_id", c.ID, "err", err)
	}
}
