package routing

import (
	"context"
	"testing"

	"support-platform/internal/agents"
	"support-platform/internal/channel"
	"support-platform/internal/conversation"
)

func seedRoster() *agents.MemoryRepo {
	roster := agents.NewMemoryRepo()
	roster.Agents = []agents.Agent{
		{ID: "a", WorkspaceID: "w", Name: "Alice", Role: "agent", Branch: "north", Active: true},
		{ID: "b", WorkspaceID: "w", Name: "Bob", Role: "agent", Branch: "north", Active: true},
		{ID: "c", WorkspaceID: "w", Name: "Cara", Role: "supervisor", Branch: "north", Active: true},
	}
	return roster
}

func activeConv(id, agentID, pool string) conversation.Conversation {
	return conversation.Conversation{
		ID:              id,
		WorkspaceID:     "w",
		Pool:            pool,
		Status:          conversation.StatusAgentAssigned,
		AssignedAgentID: agentID,
	}
}

func TestFindAvailableAgent_PicksLeastLoaded(t *testing.T) {
	roster := seedRoster()
	store := conversation.NewMemoryRepo()
	// Alice: 2 active, Bob: 1, Cara: 1.
	for _, c := range []conversation.Conversation{
		activeConv("c1", "a", "north"),
		activeConv("c2", "a", "north"),
		activeConv("c3", "b", "north"),
		activeConv("c4", "c", "north"),
	} {
		if err := store.Insert(context.Background(), c, nil); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	e := NewEngine(roster, store)
	got, ok, err := e.FindAvailableAgent(context.Background(), "w", "north", channel.ChannelWeb)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	// Bob and Cara tie on load; name tie-break picks Bob. Never Alice.
	if got.ID != "b" {
		t.Fatalf("expected Bob, got %q", got.ID)
	}
}

func TestFindAvailableAgent_IgnoresOtherPoolWorkload(t *testing.T) {
	roster := seedRoster()
	store := conversation.NewMemoryRepo()
	// Alice carries heavy load in the south pool only.
	for _, c := range []conversation.Conversation{
		activeConv("c1", "a", "south"),
		activeConv("c2", "a", "south"),
		activeConv("c3", "b", "north"),
	} {
		if err := store.Insert(context.Background(), c, nil); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	e := NewEngine(roster, store)
	got, ok, err := e.FindAvailableAgent(context.Background(), "w", "north", channel.ChannelWeb)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	// Workload is pool-scoped: Alice has zero north conversations.
	if got.ID != "a" {
		t.Fatalf("expected Alice, got %q", got.ID)
	}
}

func TestFindAvailableAgent_TerminalConversationsDoNotCount(t *testing.T) {
	roster := seedRoster()
	store := conversation.NewMemoryRepo()
	resolved := activeConv("c1", "b", "north")
	resolved.Status = conversation.StatusResolved
	if err := store.Insert(context.Background(), resolved, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(context.Background(), activeConv("c2", "a", "north"), nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	e := NewEngine(roster, store)
	got, _, err := e.FindAvailableAgent(context.Background(), "w", "north", channel.ChannelWeb)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != "b" {
		t.Fatalf("expected Bob (resolved rows excluded), got %q", got.ID)
	}
}

func TestFindAvailableAgent_EmptyPoolIsNotAnError(t *testing.T) {
	e := NewEngine(agents.NewMemoryRepo(), conversation.NewMemoryRepo())
	_, ok, err := e.FindAvailableAgent(context.Background(), "w", "nowhere", channel.ChannelWeb)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok {
		t.Fatalf("expected no agent")
	}
}
