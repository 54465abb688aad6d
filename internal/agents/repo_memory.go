package agents

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory roster for tests and early development.
// It enforces workspace isolation on reads.
type MemoryRepo struct {
	mu sync.Mutex

	Agents []Agent
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Get(ctx context.Context, workspaceID, agentID string) (Agent, error) {
	if workspaceID == "" {
		return Agent{}, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.Agents {
		if a.WorkspaceID == workspaceID && a.ID == agentID {
			return a, nil
		}
	}
	return Agent{}, ErrNotFound
}

func (r *MemoryRepo) ListPool(ctx context.Context, workspaceID, pool string, roles []string) ([]Agent, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Agent, 0)
	for _, a := range r.Agents {
		if a.WorkspaceID != workspaceID || !a.Active {
			continue
		}
		if pool != "" && a.Branch != pool {
			continue
		}
		if len(roleSet) > 0 {
			if _, ok := roleSet[a.Role]; !ok {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
