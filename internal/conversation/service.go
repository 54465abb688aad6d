package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"support-platform/internal/agents"
	"support-platform/internal/channel"
	"support-platform/internal/dispatch"

	"github.com/google/uuid"
)

// Settings are the per-process behavior knobs, built once from config and
// passed in explicitly. No component reads env or globals at runtime.
type Settings struct {
	// AIEnabled is the global kill switch for automated handling.
	AIEnabled bool

	// HumanOnlyChannel never receives AI handling and escalates
	// unconditionally while unassigned.
	HumanOnlyChannel channel.Channel

	// DefaultPool receives the creation-time auto-assignment attempt.
	DefaultPool string
}

// EscalationOutcome reports what the orchestrator did.
type EscalationOutcome struct {
	Assigned bool
	AgentID  string
}

// Assigner finds an agent for the creation-time auto-assignment attempt.
// Satisfied by routing.Engine. Plain assignment only: unlike escalation it
// does not flag human intervention or create records.
type Assigner interface {
	FindAvailableAgent(ctx context.Context, workspaceID, pool string, ch channel.Channel) (agents.Agent, bool, error)
}

// Escalator runs the escalation flow synchronously within a save.
// It mutates the conversation in place; the caller persists afterwards.
// Implementations are best-effort and must not return errors for routing
// exhaustion (that is a normal outcome, reflected on the conversation).
type Escalator interface {
	Escalate(ctx context.Context, c *Conversation, reason string) (EscalationOutcome, error)
}

// EscalationResolver closes out escalation records when a conversation is
// resolved. Kept as a small interface to avoid a dependency cycle with the
// escalation package.
type EscalationResolver interface {
	ResolveLatest(ctx context.Context, workspaceID, conversationID, notes string) error
}

// escalationConfidenceFloor triggers escalation whenever the AI reports a
// confidence score below it.
const escalationConfidenceFloor = 0.7

// Service owns conversation state transitions.
//
// Every mutation funnels through the save pipeline: auto-escalation check
// first (synchronous, same save), then the SLA-deadline recompute, then
// one whole-row update. The two async hops (AI trigger, agent
// notification) are fire-and-forget via the dispatcher.
type Service struct {
	repo       Repository
	assigner   Assigner
	escalator  Escalator
	escResolve EscalationResolver
	dispatcher dispatch.Dispatcher
	settings   Settings
	log        *slog.Logger

	clock func() time.Time
}

// Deps groups the service collaborators for wiring. Only Repo is
// mandatory; everything else degrades to a no-op when nil.
type Deps struct {
	Repo               Repository
	Assigner           Assigner
	Escalator          Escalator
	EscalationResolver EscalationResolver
	Dispatcher         dispatch.Dispatcher
	Settings           Settings
	Log                *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Service{
		repo:       d.Repo,
		assigner:   d.Assigner,
		escalator:  d.Escalator,
		escResolve: d.EscalationResolver,
		dispatcher: d.Dispatcher,
		settings:   d.Settings,
		log:        d.Log,
		clock:      time.Now,
	}
}

type CreateRequest struct {
	Channel  string   `json:"channel"`
	Pool     string   `json:"pool,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	AIMode   AIMode   `json:"ai_mode,omitempty"`

	// Body is the first inbound message.
	Body string `json:"body"`
}

// Create builds a conversation from the first inbound message.
//
// Creation order: defaults, set-once SLA expiry, the unconditional
// auto-assignment attempt against the default pool, then the AI gate, then
// the regular save pipeline.
func (s *Service) Create(ctx context.Context, workspaceID string, req CreateRequest) (Conversation, error) {
	if workspaceID == "" {
		return Conversation{}, ErrInvalidRequest
	}

	now := s.clock().UTC()
	ch := channel.Parse(req.Channel)

	c := Conversation{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Channel:     ch,
		Pool:        req.Pool,
		Subject:     req.Subject,
		Priority:    req.Priority,
		Status:      StatusNew,
		AIMode:      req.AIMode,
		CreatedAt:   now,
		LastMessageAt: now,
		SLAStatus:   SLAInProgress,
		UpdatedAt:   now,
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	if c.AIMode == "" {
		c.AIMode = AIModeAuto
	}
	if c.Pool == "" {
		c.Pool = s.settings.DefaultPool
	}

	// Set exactly once; never recomputed on later saves.
	c.ResolutionSLAExpiry = now.Add(ch.ResolutionSLA())

	var first *Message
	if req.Body != "" {
		first = &Message{
			ID:             uuid.NewString(),
			WorkspaceID:    workspaceID,
			ConversationID: c.ID,
			Direction:      DirectionInbound,
			Body:           req.Body,
			CreatedAt:      now,
		}
	}
	if err := s.repo.Insert(ctx, c, first); err != nil {
		return Conversation{}, fmt.Errorf("conversation: insert: %w", err)
	}

	// Unconditional auto-assignment attempt. Best-effort: a failure here
	// must not fail creation, and plain assignment does not flag human
	// intervention the way escalation does.
	if s.assigner != nil {
		agent, ok, err := s.assigner.FindAvailableAgent(ctx, workspaceID, c.Pool, ch)
		if err != nil {
			s.log.Error("auto-assignment failed", "conversation_id", c.ID, "err", err)
		} else if ok {
			c.AssignedAgentID = agent.ID
			c.AgentAssignedAt = &now
			c.Status = StatusAgentAssigned
		}
	}

	if s.aiGateAllows(c) {
		c.Status = StatusAIProcessing
		s.enqueueAITask(ctx, c)
	}

	if err := s.save(ctx, &c); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

// Patch carries partial updates; nil fields are left untouched
// (field-level last-write-wins).
type Patch struct {
	Priority *Priority `json:"priority,omitempty"`
	AIMode   *AIMode   `json:"ai_mode,omitempty"`
	Subject  *string   `json:"subject,omitempty"`

	AIConfidenceScore         *float64 `json:"ai_confidence_score,omitempty"`
	RequiresHumanIntervention *bool    `json:"requires_human_intervention,omitempty"`
}

func (s *Service) Update(ctx context.Context, workspaceID, id string, p Patch) (Conversation, error) {
	c, err := s.repo.Get(ctx, workspaceID, id)
	if err != nil {
		return Conversation{}, err
	}

	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.AIMode != nil {
		c.AIMode = *p.AIMode
	}
	if p.Subject != nil {
		c.Subject = *p.Subject
	}
	if p.AIConfidenceScore != nil {
		c.AIConfidenceScore = p.AIConfidenceScore
	}
	if p.RequiresHumanIntervention != nil && *p.RequiresHumanIntervention {
		// Sticky: can be set, never cleared through updates.
		c.RequiresHumanIntervention = true
	}

	if err := s.save(ctx, &c); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

type MessageRequest struct {
	Direction Direction `json:"direction"`
	FromAI    bool      `json:"from_ai,omitempty"`
	Body      string    `json:"body"`
}

// RecordMessage appends a message and stamps the derived timestamps.
func (s *Service) RecordMessage(ctx context.Context, workspaceID, id string, req MessageRequest) (Conversation, error) {
	if req.Direction != DirectionInbound && req.Direction != DirectionOutbound {
		return Conversation{}, ErrInvalidRequest
	}
	c, err := s.repo.Get(ctx, workspaceID, id)
	if err != nil {
		return Conversation{}, err
	}

	now := s.clock().UTC()
	msg := Message{
		ID:             uuid.NewString(),
		WorkspaceID:    workspaceID,
		ConversationID: id,
		Direction:      req.Direction,
		FromAI:         req.FromAI,
		Body:           req.Body,
		CreatedAt:      now,
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return Conversation{}, fmt.Errorf("conversation: append message: %w", err)
	}

	c.LastMessageAt = now
	if req.Direction == DirectionOutbound && c.FirstResponseAt == nil {
		c.FirstResponseAt = &now
	}

	if err := s.save(ctx, &c); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

// Escalate runs a manual escalation, then the save pipeline.
func (s *Service) Escalate(ctx context.Context, workspaceID, id, reason string) (Conversation, EscalationOutcome, error) {
	c, err := s.repo.Get(ctx, workspaceID, id)
	if err != nil {
		return Conversation{}, EscalationOutcome{}, err
	}
	var out EscalationOutcome
	if s.escalator != nil {
		out, err = s.escalator.Escalate(ctx, &c, reason)
		if err != nil {
			// Escalation is best-effort; log and continue the save.
			s.log.Error("escalation failed", "conversation_id", c.ID, "err", err)
		}
	}
	if err := s.save(ctx, &c); err != nil {
		return Conversation{}, EscalationOutcome{}, err
	}
	return c, out, nil
}

// Resolve marks the conversation resolved and closes out the most recent
// open escalation record, if any.
func (s *Service) Resolve(ctx context.Context, workspaceID, id, notes string) (Conversation, error) {
	c, err := s.repo.Get(ctx, workspaceID, id)
	if err != nil {
		return Conversation{}, err
	}
	if c.Status.Terminal() {
		return c, nil
	}

	now := s.clock().UTC()
	c.Status = StatusResolved
	c.ResolvedAt = &now
	c.ResolutionNotes = notes
	c.Archived = true

	if err := s.save(ctx, &c); err != nil {
		return Conversation{}, err
	}

	if s.escResolve != nil {
		if err := s.escResolve.ResolveLatest(ctx, workspaceID, id, notes); err != nil {
			s.log.Error("escalation record resolve failed", "conversation_id", id, "err", err)
		}
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, workspaceID, id string) (Conversation, error) {
	return s.repo.Get(ctx, workspaceID, id)
}

// save is the pipeline every mutation runs through: auto-escalation check
// (synchronous, same save), SLA-deadline recompute, then one update.
func (s *Service) save(ctx context.Context, c *Conversation) error {
	if s.escalator != nil && s.needsAutoEscalation(*c) {
		if _, err := s.escalator.Escalate(ctx, c, s.autoEscalationReason(*c)); err != nil {
			s.log.Error("auto-escalation failed", "conversation_id", c.ID, "err", err)
		}
	}

	s.recomputeSLAStatus(c)
	c.UpdatedAt = s.clock().UTC()

	if err := s.repo.Update(ctx, *c); err != nil {
		return fmt.Errorf("conversation: update: %w", err)
	}
	return nil
}

// aiGateAllows decides whether the automated responder may handle this
// conversation. Supervising-agent model: an assigned agent does not by
// itself close the gate; only the sticky intervention flag, an explicit
// ai_mode=off, the global switch, or a human-only channel do.
func (s *Service) aiGateAllows(c Conversation) bool {
	if c.Channel == s.settings.HumanOnlyChannel {
		return false
	}
	if !s.settings.AIEnabled {
		return false
	}
	switch c.AIMode {
	case AIModeOn:
		return true
	case AIModeOff:
		return false
	default: // auto
		return !c.RequiresHumanIntervention
	}
}

// needsAutoEscalation is evaluated before every save.
func (s *Service) needsAutoEscalation(c Conversation) bool {
	if c.AssignedAgentID != "" {
		return false
	}
	if c.Status.Terminal() {
		return false
	}
	if c.Channel == s.settings.HumanOnlyChannel {
		return true
	}
	if c.AIConfidenceScore != nil && *c.AIConfidenceScore < escalationConfidenceFloor {
		return true
	}
	if c.RequiresHumanIntervention {
		return true
	}
	if c.EscalationReason != "" {
		return true
	}
	return false
}

func (s *Service) autoEscalationReason(c Conversation) string {
	switch {
	case c.Channel == s.settings.HumanOnlyChannel:
		return "human-only channel"
	case c.AIConfidenceScore != nil && *c.AIConfidenceScore < escalationConfidenceFloor:
		return fmt.Sprintf("low AI confidence (%.2f)", *c.AIConfidenceScore)
	case c.RequiresHumanIntervention:
		return "human intervention required"
	default:
		if c.EscalationReason != "" {
			return c.EscalationReason
		}
		return "auto-escalation"
	}
}

// recomputeSLAStatus runs on every save. Terminal conversations are judged
// by their last message against the deadline; open ones by the clock.
func (s *Service) recomputeSLAStatus(c *Conversation) {
	if c.ResolutionSLAExpiry.IsZero() {
		return
	}
	if c.Status.Terminal() {
		if c.LastMessageAt.After(c.ResolutionSLAExpiry) {
			c.SLAStatus = SLAExceeded
		} else {
			c.SLAStatus = SLAFulfilled
		}
		return
	}
	if s.clock().UTC().After(c.ResolutionSLAExpiry) {
		c.SLAStatus = SLAExceeded
	} else {
		c.SLAStatus = SLAInProgress
	}
}

func (s *Service) enqueueAITask(ctx context.Context, c Conversation) {
	if s.dispatcher == nil {
		return
	}
	task := dispatch.Task{
		Type:           dispatch.TaskTypeAIProcess,
		WorkspaceID:    c.WorkspaceID,
		ConversationID: c.ID,
	}
	// Fire-and-forget; the caller never blocks on AI processing.
	if err := s.dispatcher.Enqueue(ctx, task); err != nil {
		s.log.Error("ai task enqueue failed", "conversation_id", c.ID, "err", err)
	}
}
