package routing

import (
	"context"
	"errors"
	"sort"

	"support-platform/internal/agents"
	"support-platform/internal/channel"
	"support-platform/internal/rbac"
)

// WorkloadCounter counts an agent's active conversations within one pool.
// Satisfied by conversation.Repository. Counts are always recomputed from
// rows; a slightly stale count may double-assign the least-loaded agent in
// a race, which is acceptable soft balancing, not a correctness invariant.
type WorkloadCounter interface {
	CountActiveByAgent(ctx context.Context, workspaceID, pool, agentID string) (int, error)
}

// Engine picks the least-loaded eligible agent from a routing pool.
//
// Return the selection only. No side effects: no conversation writes, no
// notifications. The escalation orchestrator owns those.
type Engine struct {
	Agents    agents.Repository
	Workloads WorkloadCounter

	// Roles overrides the eligible role set; defaults to rbac.RoutingRoles.
	Roles []string
}

func NewEngine(roster agents.Repository, workloads WorkloadCounter) *Engine {
	return &Engine{Agents: roster, Workloads: workloads}
}

// FindAvailableAgent returns the pool's least-loaded eligible agent.
// Ties break on name ascending so repeated calls are deterministic.
// An empty pool is a normal outcome (ok=false), not an error.
func (e *Engine) FindAvailableAgent(ctx context.Context, workspaceID, pool string, ch channel.Channel) (agents.Agent, bool, error) {
	if workspaceID == "" {
		return agents.Agent{}, false, errors.New("routing: workspace_id required")
	}
	if e.Agents == nil || e.Workloads == nil {
		return agents.Agent{}, false, errors.New("routing: engine not configured")
	}

	roles := e.Roles
	if len(roles) == 0 {
		roles = rbac.RoutingRoles()
	}

	candidates, err := e.Agents.ListPool(ctx, workspaceID, pool, roles)
	if err != nil {
		return agents.Agent{}, false, err
	}
	if len(candidates) == 0 {
		return agents.Agent{}, false, nil
	}

	type ranked struct {
		agent agents.Agent
		load  int
	}
	rankedAgents := make([]ranked, 0, len(candidates))
	for _, a := range candidates {
		n, err := e.Workloads.CountActiveByAgent(ctx, workspaceID, pool, a.ID)
		if err != nil {
			return agents.Agent{}, false, err
		}
		rankedAgents = append(rankedAgents, ranked{agent: a, load: n})
	}

	sort.SliceStable(rankedAgents, func(i, j int) bool {
		if rankedAgents[i].load != rankedAgents[j].load {
			return rankedAgents[i].load < rankedAgents[j].load
		}
		return rankedAgents[i].agent.Name < rankedAgents[j].agent.Name
	})

	return rankedAgents[0].agent, true, nil
}
