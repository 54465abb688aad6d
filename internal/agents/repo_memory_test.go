package agents

import (
	"context"
	"testing"
)

func TestListPool_FiltersPoolRoleAndActive(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Agents = []Agent{
		{ID: "a1", WorkspaceID: "w", Name: "Ana", Role: "agent", Branch: "north", Active: true},
		{ID: "a2", WorkspaceID: "w", Name: "Ben", Role: "agent", Branch: "south", Active: true},
		{ID: "a3", WorkspaceID: "w", Name: "Cid", Role: "analyst", Branch: "north", Active: true},
		{ID: "a4", WorkspaceID: "w", Name: "Dee", Role: "agent", Branch: "north", Active: false},
		{ID: "a5", WorkspaceID: "other", Name: "Eve", Role: "agent", Branch: "north", Active: true},
	}

	out, err := repo.ListPool(context.Background(), "w", "north", []string{"agent", "supervisor"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 1 || out[0].ID != "a1" {
		t.Fatalf("expected only a1, got %+v", out)
	}
}

func TestResolver_FallsBackToSentinels(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Agents = []Agent{{ID: "a1", WorkspaceID: "w", Name: "Ana", Role: "agent", Branch: "north", Active: true}}
	res := Resolver{Repo: repo}
	ctx := context.Background()

	if got := res.ResolveBranch(ctx, "w", "a1"); got != "north" {
		t.Fatalf("expected north, got %q", got)
	}
	if got := res.ResolveBranch(ctx, "w", "missing"); got != BranchUnassigned {
		t.Fatalf("expected %q, got %q", BranchUnassigned, got)
	}
	if got := res.ResolveRoleBucket(ctx, "w", "a1"); got != "Support" {
		t.Fatalf("expected Support, got %q", got)
	}
	if got := res.ResolveRoleBucket(ctx, "w", ""); got != RoleBucketOther {
		t.Fatalf("expected %q, got %q", RoleBucketOther, got)
	}
}
