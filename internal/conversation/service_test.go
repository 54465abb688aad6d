package conversation

import (
	"context"
	"testing"
	"time"

	"support-platform/internal/agents"
	"support-platform/internal/channel"
	"support-platform/internal/dispatch"
)

var testNow = time.Date(2023, 11, 10, 9, 0, 0, 0, time.UTC)

type stubAssigner struct {
	agent agents.Agent
	ok    bool
}

func (a stubAssigner) FindAvailableAgent(ctx context.Context, workspaceID, pool string, ch channel.Channel) (agents.Agent, bool, error) {
	return a.agent, a.ok, nil
}

type stubEscalator struct {
	reasons []string
	assign  bool
}

func (e *stubEscalator) Escalate(ctx context.Context, c *Conversation, reason string) (EscalationOutcome, error) {
	e.reasons = append(e.reasons, reason)
	if !e.assign {
		c.Status = StatusNew
		c.EscalationReason = "No agents available"
		return EscalationOutcome{}, nil
	}
	c.Status = StatusAgentAssigned
	c.AssignedAgentID = "agent-1"
	c.RequiresHumanIntervention = true
	return EscalationOutcome{Assigned: true, AgentID: "agent-1"}, nil
}

type stubResolver struct {
	calls int
	notes string
}

func (r *stubResolver) ResolveLatest(ctx context.Context, workspaceID, conversationID, notes string) error {
	r.calls++
	r.notes = notes
	return nil
}

type captureDispatcher struct {
	tasks []dispatch.Task
}

func (d *captureDispatcher) Enqueue(ctx context.Context, t dispatch.Task) error {
	d.tasks = append(d.tasks, t)
	return nil
}

func testSettings() Settings {
	return Settings{
		AIEnabled:        true,
		HumanOnlyChannel: channel.ChannelVoice,
		DefaultPool:      "customer-service",
	}
}

func newTestService(d Deps) *Service {
	if d.Repo == nil {
		d.Repo = NewMemoryRepo()
	}
	s := NewService(d)
	s.clock = func() time.Time { return testNow }
	return s
}

func TestCreate_EntersAIProcessing(t *testing.T) {
	repo := NewMemoryRepo()
	dispatcher := &captureDispatcher{}
	s := newTestService(Deps{Repo: repo, Dispatcher: dispatcher, Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != StatusAIProcessing {
		t.Fatalf("status = %s, want ai_processing", c.Status)
	}
	if c.Priority != PriorityMedium || c.AIMode != AIModeAuto || c.Pool != "customer-service" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if len(dispatcher.tasks) != 1 || dispatcher.tasks[0].Type != dispatch.TaskTypeAIProcess {
		t.Fatalf("expected one ai_process task, got %+v", dispatcher.tasks)
	}

	msgs, err := repo.ListMessages(context.Background(), "ws1", c.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Direction != DirectionInbound || msgs[0].Body != "hello" {
		t.Fatalf("expected first inbound message, got %+v", msgs)
	}
}

func TestCreate_ResolutionSLAExpiryByChannel(t *testing.T) {
	s := newTestService(Deps{Settings: testSettings()})

	im, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "whatsapp", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := testNow.Add(24 * time.Hour); !im.ResolutionSLAExpiry.Equal(want) {
		t.Fatalf("instant-messaging expiry = %v, want %v", im.ResolutionSLAExpiry, want)
	}

	web, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := testNow.Add(48 * time.Hour); !web.ResolutionSLAExpiry.Equal(want) {
		t.Fatalf("web expiry = %v, want %v", web.ResolutionSLAExpiry, want)
	}
}

func TestCreate_HumanOnlyChannelEscalatesAndSkipsAI(t *testing.T) {
	esc := &stubEscalator{}
	dispatcher := &captureDispatcher{}
	s := newTestService(Deps{Escalator: esc, Dispatcher: dispatcher, Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "voice", Body: "call"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status == StatusAIProcessing {
		t.Fatal("human-only channel must never enter ai_processing")
	}
	if len(esc.reasons) != 1 || esc.reasons[0] != "human-only channel" {
		t.Fatalf("expected one escalation for the human-only channel, got %v", esc.reasons)
	}
	if len(dispatcher.tasks) != 0 {
		t.Fatalf("no AI task expected, got %+v", dispatcher.tasks)
	}
}

func TestCreate_AutoAssignmentDoesNotCloseAIGate(t *testing.T) {
	// Supervising-agent model: the creation-time assignment gives the
	// conversation an agent, but AI still handles it in auto mode.
	s := newTestService(Deps{
		Assigner: stubAssigner{agent: agents.Agent{ID: "agent-1"}, ok: true},
		Settings: testSettings(),
	})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.AssignedAgentID != "agent-1" || c.AgentAssignedAt == nil {
		t.Fatalf("expected auto-assignment, got %+v", c)
	}
	if c.Status != StatusAIProcessing {
		t.Fatalf("status = %s, want ai_processing despite assignment", c.Status)
	}
	if c.RequiresHumanIntervention {
		t.Fatal("plain assignment must not flag human intervention")
	}
}

func TestCreate_GlobalAISwitchOff(t *testing.T) {
	settings := testSettings()
	settings.AIEnabled = false
	s := newTestService(Deps{Settings: settings})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != StatusNew {
		t.Fatalf("status = %s, want new with AI disabled", c.Status)
	}
}

func TestUpdate_LowConfidenceEscalates(t *testing.T) {
	esc := &stubEscalator{assign: true}
	s := newTestService(Deps{Escalator: esc, Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	score := 0.4
	got, err := s.Update(context.Background(), "ws1", c.ID, Patch{AIConfidenceScore: &score})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != StatusAgentAssigned || !got.RequiresHumanIntervention {
		t.Fatalf("expected escalated conversation, got %+v", got)
	}
	if len(esc.reasons) != 1 {
		t.Fatalf("expected one escalation, got %v", esc.reasons)
	}
}

func TestUpdate_ConfidentScoreDoesNotEscalate(t *testing.T) {
	esc := &stubEscalator{assign: true}
	s := newTestService(Deps{Escalator: esc, Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	score := 0.9
	got, err := s.Update(context.Background(), "ws1", c.ID, Patch{AIConfidenceScore: &score})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(esc.reasons) != 0 {
		t.Fatalf("no escalation expected, got %v", esc.reasons)
	}
	if got.Status != StatusAIProcessing {
		t.Fatalf("status = %s, want ai_processing", got.Status)
	}
}

func TestUpdate_InterventionFlagIsSticky(t *testing.T) {
	esc := &stubEscalator{assign: true}
	s := newTestService(Deps{Escalator: esc, Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	flag := true
	got, err := s.Update(context.Background(), "ws1", c.ID, Patch{RequiresHumanIntervention: &flag})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.RequiresHumanIntervention {
		t.Fatal("expected intervention flag set")
	}

	flag = false
	got, err = s.Update(context.Background(), "ws1", got.ID, Patch{RequiresHumanIntervention: &flag})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.RequiresHumanIntervention {
		t.Fatal("intervention flag must never clear through updates")
	}
}

func TestUpdate_SLAExpiryNeverRecomputed(t *testing.T) {
	s := newTestService(Deps{Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := c.ResolutionSLAExpiry

	p := PriorityUrgent
	got, err := s.Update(context.Background(), "ws1", c.ID, Patch{Priority: &p})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.ResolutionSLAExpiry.Equal(want) {
		t.Fatalf("expiry changed from %v to %v", want, got.ResolutionSLAExpiry)
	}
}

func TestRecordMessage_FirstOutboundSetsFirstResponse(t *testing.T) {
	s := newTestService(Deps{Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := testNow.Add(15 * time.Minute)
	s.clock = func() time.Time { return later }

	got, err := s.RecordMessage(context.Background(), "ws1", c.ID, MessageRequest{
		Direction: DirectionOutbound, FromAI: true, Body: "how can I help?",
	})
	if err != nil {
		t.Fatalf("RecordMessage: %v", err)
	}
	if got.FirstResponseAt == nil || !got.FirstResponseAt.Equal(later) {
		t.Fatalf("first_response_at = %v, want %v", got.FirstResponseAt, later)
	}
	if !got.LastMessageAt.Equal(later) {
		t.Fatalf("last_message_at = %v, want %v", got.LastMessageAt, later)
	}

	// A second outbound message must not move the first-response stamp.
	s.clock = func() time.Time { return later.Add(time.Hour) }
	got, err = s.RecordMessage(context.Background(), "ws1", c.ID, MessageRequest{
		Direction: DirectionOutbound, Body: "anything else?",
	})
	if err != nil {
		t.Fatalf("RecordMessage: %v", err)
	}
	if !got.FirstResponseAt.Equal(later) {
		t.Fatalf("first_response_at moved to %v", got.FirstResponseAt)
	}
}

func TestSLAStatus_OpenConversationPastDeadline(t *testing.T) {
	s := newTestService(Deps{Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.SLAStatus != SLAInProgress {
		t.Fatalf("sla_status = %s, want in_progress", c.SLAStatus)
	}

	s.clock = func() time.Time { return testNow.Add(72 * time.Hour) }
	got, err := s.RecordMessage(context.Background(), "ws1", c.ID, MessageRequest{
		Direction: DirectionInbound, Body: "any news?",
	})
	if err != nil {
		t.Fatalf("RecordMessage: %v", err)
	}
	if got.SLAStatus != SLAExceeded {
		t.Fatalf("sla_status = %s, want exceeded past deadline", got.SLAStatus)
	}
}

func TestResolve_WithinDeadline(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestService(Deps{EscalationResolver: resolver, Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.clock = func() time.Time { return testNow.Add(2 * time.Hour) }
	got, err := s.Resolve(context.Background(), "ws1", c.ID, "fixed the billing issue")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Status != StatusResolved || got.ResolvedAt == nil || !got.Archived {
		t.Fatalf("unexpected resolved conversation: %+v", got)
	}
	if got.SLAStatus != SLAFulfilled {
		t.Fatalf("sla_status = %s, want fulfilled", got.SLAStatus)
	}
	if resolver.calls != 1 || resolver.notes != "fixed the billing issue" {
		t.Fatalf("expected one escalation-record resolve, got %+v", resolver)
	}
}

func TestResolve_AfterDeadlineExceeds(t *testing.T) {
	s := newTestService(Deps{Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "whatsapp", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Last customer activity lands past the 24h instant-messaging deadline.
	s.clock = func() time.Time { return testNow.Add(30 * time.Hour) }
	if _, err := s.RecordMessage(context.Background(), "ws1", c.ID, MessageRequest{
		Direction: DirectionInbound, Body: "still waiting",
	}); err != nil {
		t.Fatalf("RecordMessage: %v", err)
	}

	got, err := s.Resolve(context.Background(), "ws1", c.ID, "done")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.SLAStatus != SLAExceeded {
		t.Fatalf("sla_status = %s, want exceeded", got.SLAStatus)
	}
}

func TestResolve_IdempotentOnTerminal(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestService(Deps{EscalationResolver: resolver, Settings: testSettings()})

	c, err := s.Create(context.Background(), "ws1", CreateRequest{Channel: "web", Body: "hi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first, err := s.Resolve(context.Background(), "ws1", c.ID, "done")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := s.Resolve(context.Background(), "ws1", c.ID, "done again")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !second.ResolvedAt.Equal(*first.ResolvedAt) || second.ResolutionNotes != first.ResolutionNotes {
		t.Fatalf("second resolve mutated the conversation: %+v", second)
	}
	if resolver.calls != 1 {
		t.Fatalf("resolver called %d times, want 1", resolver.calls)
	}
}
