package agents

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("agents: not found")

// Repository abstracts roster access.
//
// Implementations must enforce workspace filtering on every method.
type Repository interface {
	Get(ctx context.Context, workspaceID, agentID string) (Agent, error)

	// ListPool returns active agents in one routing pool holding any of
	// the given roles, ordered by name for deterministic iteration.
	ListPool(ctx context.Context, workspaceID, pool string, roles []string) ([]Agent, error)
}

// Resolver resolves report dimensions for an assigned agent.
// Lookup failures degrade to sentinels; a report row never fails because
// an agent left the roster.
type Resolver struct {
	Repo Repository
}

func (r Resolver) ResolveBranch(ctx context.Context, workspaceID, agentID string) string {
	if agentID == "" || r.Repo == nil {
		return BranchUnassigned
	}
	a, err := r.Repo.Get(ctx, workspaceID, agentID)
	if err != nil || a.Branch == "" {
		return BranchUnassigned
	}
	return a.Branch
}

func (r Resolver) ResolveRoleBucket(ctx context.Context, workspaceID, agentID string) string {
	if agentID == "" || r.Repo == nil {
		return RoleBucketOther
	}
	a, err := r.Repo.Get(ctx, workspaceID, agentID)
	if err != nil {
		return RoleBucketOther
	}
	return RoleBucket(a.Role)
}
